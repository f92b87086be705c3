// Package memory provides an in-process storage.Provider. It backs tests and
// local experiments; stored MD5s follow S3 ETag semantics for single-part
// uploads, so change detection behaves as it would against a real bucket.
package memory

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // MD5 mirrors object-store ETags, not a security boundary.
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// Object is one stored object.
type Object struct {
	Key             string
	Data            []byte
	MD5             string
	ContentType     string
	ContentEncoding string
	CacheControl    string
	Metadata        map[string]string
	Tags            map[string]string
	Public          bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithUploadHook runs fn before every upload. A non-nil error fails the upload
// and nothing is stored.
func WithUploadHook(fn func(req *storage.UploadRequest) error) Option {
	return func(p *Provider) {
		p.uploadHook = fn
	}
}

// WithDeleteHook runs fn before every delete. A non-nil error fails the
// delete and the object is kept.
func WithDeleteHook(fn func(key string) error) Option {
	return func(p *Provider) {
		p.deleteHook = fn
	}
}

// WithListError makes every List call fail with err.
func WithListError(err error) Option {
	return func(p *Provider) {
		p.listErr = err
	}
}

// Provider is a thread-safe in-memory bucket.
type Provider struct {
	mu      sync.RWMutex
	objects map[string]*Object

	uploadHook func(*storage.UploadRequest) error
	deleteHook func(string) error
	listErr    error

	uploads atomic.Int64
	deletes atomic.Int64
	lists   atomic.Int64
}

var _ storage.Provider = (*Provider)(nil)

// New creates an empty provider.
func New(opts ...Option) *Provider {
	p := &Provider{objects: make(map[string]*Object)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Put stores data at key directly, bypassing hooks and counters.
func (p *Provider) Put(key string, data []byte) {
	p.PutObject(Object{Key: key, Data: data})
}

// PutObject stores obj directly. An empty MD5 is computed from Data.
func (p *Provider) PutObject(obj Object) {
	if obj.MD5 == "" {
		obj.MD5 = sum(obj.Data)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[obj.Key] = &obj
}

// Get returns a copy of the object at key.
func (p *Provider) Get(key string) (Object, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	obj, ok := p.objects[key]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// Keys returns every stored key in lexical order.
func (p *Provider) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.objects))
	for k := range p.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Upload implements storage.Provider.
func (p *Provider) Upload(ctx context.Context, req *storage.UploadRequest) error {
	p.uploads.Add(1)

	if err := ctx.Err(); err != nil {
		return pusherrors.NewKeyError("upload", req.Key, err)
	}
	if p.uploadHook != nil {
		if err := p.uploadHook(req); err != nil {
			return pusherrors.NewKeyError("upload", req.Key, err)
		}
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, req.Body)
	if err != nil {
		return pusherrors.NewKeyError("upload", req.Key, err).WithCode(pusherrors.CodeIO)
	}
	if req.ContentLength > 0 && n != req.ContentLength {
		return pusherrors.NewKeyError("upload", req.Key,
			fmt.Errorf("%w: body is %d bytes, content length is %d", pusherrors.ErrInvalidInput, n, req.ContentLength))
	}

	p.PutObject(Object{
		Key:             req.Key,
		Data:            buf.Bytes(),
		ContentType:     req.ContentType,
		ContentEncoding: req.ContentEncoding,
		CacheControl:    req.CacheControl,
		Metadata:        maps.Clone(req.Metadata),
		Tags:            maps.Clone(req.Tags),
		Public:          req.MakePublic,
	})
	return nil
}

// List implements storage.Provider. Objects are returned in key order.
func (p *Provider) List(ctx context.Context, prefix string, includeMetadata bool) ([]storage.RemoteObject, error) {
	p.lists.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, pusherrors.NewError("list", err)
	}
	if p.listErr != nil {
		return nil, pusherrors.NewError("list", p.listErr)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []storage.RemoteObject
	for key, obj := range p.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		ro := storage.RemoteObject{
			Key:  key,
			MD5:  obj.MD5,
			Size: int64(len(obj.Data)),
		}
		if includeMetadata {
			ro.Metadata = maps.Clone(obj.Metadata)
		}
		out = append(out, ro)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete implements storage.Provider. Deleting a missing key fails with
// errors.ErrObjectNotFound.
func (p *Provider) Delete(ctx context.Context, key string) error {
	p.deletes.Add(1)

	if err := ctx.Err(); err != nil {
		return pusherrors.NewKeyError("delete", key, err)
	}
	if p.deleteHook != nil {
		if err := p.deleteHook(key); err != nil {
			return pusherrors.NewKeyError("delete", key, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.objects[key]; !ok {
		return pusherrors.NewKeyError("delete", key, pusherrors.ErrObjectNotFound)
	}
	delete(p.objects, key)
	return nil
}

// Uploads returns the number of Upload calls, including failed ones.
func (p *Provider) Uploads() int { return int(p.uploads.Load()) }

// Deletes returns the number of Delete calls, including failed ones.
func (p *Provider) Deletes() int { return int(p.deletes.Load()) }

// Lists returns the number of List calls.
func (p *Provider) Lists() int { return int(p.lists.Load()) }

func sum(data []byte) string {
	h := md5.Sum(data) //nolint:gosec // see import
	return hex.EncodeToString(h[:])
}
