package dataset

import (
	"context"
	"io"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/internal/compress"
	"github.com/hupe1980/distkmeans/model"
	"github.com/hupe1980/distkmeans/resource"
)

// Options configures Load.
type Options struct {
	// Compression overrides detection by file extension when set.
	Compression *compress.Type

	// Resource throttles input IO. Nil means unlimited.
	Resource *resource.Controller
}

// WithCompression forces the input compression instead of detecting it from the name.
func WithCompression(t compress.Type) func(*Options) {
	return func(o *Options) {
		o.Compression = &t
	}
}

// WithResourceController throttles reads through rc.
func WithResourceController(rc *resource.Controller) func(*Options) {
	return func(o *Options) {
		o.Resource = rc
	}
}

// Load opens name in store and parses it. Open and read failures are
// reported as *FileOpenError, malformed rows as *ParseError.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(*Options)) ([]model.Point, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	ct := compress.FromExtension(name)
	if opts.Compression != nil {
		ct = *opts.Compression
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, &FileOpenError{Path: name, Err: err}
	}
	defer blob.Close()

	raw, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return nil, &FileOpenError{Path: name, Err: err}
	}
	defer raw.Close()

	var r io.Reader = raw
	if opts.Resource != nil {
		r = resource.NewRateLimitedReader(ctx, r, opts.Resource)
	}

	dec, err := compress.NewReader(r, ct)
	if err != nil {
		return nil, &FileOpenError{Path: name, Err: err}
	}
	defer dec.Close()

	return Parse(&readErrorReader{r: dec, name: name})
}

// readErrorReader marks transport failures so they surface as FileOpenError
// rather than ParseError.
type readErrorReader struct {
	r    io.Reader
	name string
}

func (r *readErrorReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		err = &FileOpenError{Path: r.name, Err: err}
	}
	return n, err
}
