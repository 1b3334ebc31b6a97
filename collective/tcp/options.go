package tcp

import (
	"log/slog"
	"time"

	"github.com/hupe1980/distkmeans/codec"
	"github.com/hupe1980/distkmeans/internal/compress"
)

// Options configures a tcp group member.
type Options struct {
	// Codec encodes messages. Every member must use the same codec.
	Codec codec.Codec

	// Compression applies to every frame after the handshake.
	Compression compress.Type

	// MaxFrameSize bounds a single incoming frame, after compression.
	// A collective travels as one frame, so it also bounds the largest
	// buffer: the dataset broadcast carries 2 float64s per point, which
	// at the JSON codec is roughly 25 bytes per point uncompressed. The
	// 256 MiB default therefore caps an uncompressed dataset at about
	// 10M points. Zero disables the check.
	MaxFrameSize int

	// WriteTimeout bounds a single frame write. Zero disables it.
	WriteTimeout time.Duration

	// InitialBackoff and MaxBackoff shape Dial's retry loop.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Logger *slog.Logger
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Codec:          codec.Default,
		Compression:    compress.None,
		MaxFrameSize:   256 << 20,
		WriteTimeout:   30 * time.Second,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Logger:         slog.New(slog.DiscardHandler),
	}
}

func applyOptions(optFns []func(*Options)) Options {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}

// WithCodec sets the message codec.
func WithCodec(c codec.Codec) func(*Options) {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the frame compression.
func WithCompression(t compress.Type) func(*Options) {
	return func(o *Options) {
		o.Compression = t
	}
}

// WithLogger sets the logger for connection events.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMaxFrameSize sets the largest frame a member accepts.
func WithMaxFrameSize(n int) func(*Options) {
	return func(o *Options) {
		o.MaxFrameSize = n
	}
}

// WithBackoff sets Dial's retry backoff bounds.
func WithBackoff(initial, max time.Duration) func(*Options) {
	return func(o *Options) {
		o.InitialBackoff = initial
		o.MaxBackoff = max
	}
}
