package s3

import (
	"github.com/aws/aws-sdk-go-v2/aws"
)

// DefaultListMetadataConcurrency bounds HeadObject calls when listing with
// metadata.
const DefaultListMetadataConcurrency = 3

// Config holds S3 provider configuration.
type Config struct {
	// Region is the AWS region. Defaults to the credential chain's region,
	// then us-east-1.
	Region string

	// Endpoint overrides the S3 endpoint, e.g. for LocalStack.
	Endpoint string

	// ForcePathStyle uses path-style instead of virtual-hosted URLs.
	ForcePathStyle bool

	// AccessKeyID, SecretAccessKey and SessionToken are static credentials.
	// When AccessKeyID is empty the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// ListMetadataConcurrency bounds HeadObject calls during List.
	ListMetadataConcurrency int

	// AWSConfig replaces the default configuration loading when set.
	AWSConfig *aws.Config
}

// Option configures the S3 provider.
type Option func(*Config)

// WithRegion sets the AWS region for S3 operations.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(c *Config) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithCredentials sets static credentials instead of the default chain.
func WithCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(c *Config) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithListMetadataConcurrency sets how many HeadObject calls run at once when
// listing with metadata. Default is 3.
func WithListMetadataConcurrency(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.ListMetadataConcurrency = n
		}
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) Option {
	return func(c *Config) {
		c.AWSConfig = config
	}
}
