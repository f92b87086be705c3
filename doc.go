// Package push synchronizes a local file tree to an object-storage bucket.
//
// A push expands glob patterns against a local filesystem, lists the remote
// prefix once, and then, for every matched file, fingerprints it, plans its
// encoded variants and uploads whatever changed. Remote objects that no local
// file accounts for can optionally be deleted afterwards.
//
// Example:
//
//	provider, err := registry.Open("s3://my-site", registry.Options{Region: "eu-west-1"})
//	if err != nil {
//	    return err
//	}
//
//	result, err := push.Push(ctx, provider, []string{"dist/**/*"},
//	    push.WithWorkingDirectory("."),
//	    push.WithConcurrency(8),
//	    push.WithDeleteExtraFiles(true),
//	    push.WithEncoding(pushtypes.EncodingOptions{
//	        Encodings:      []pushtypes.Encoding{pushtypes.EncodingBrotli, pushtypes.EncodingGzip},
//	        FileExtensions: []string{"js", "css", "html"},
//	    }),
//	)
//
// Per-file failures never abort a push; they are logged and reported in
// Result.ErrorKeys. Setup problems, glob expansion failures and remote
// listing failures are returned as errors.
package push
