package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a compression algorithm.
type Type uint8

const (
	// None stores data as-is.
	None Type = 0
	// LZ4 is fast with a modest ratio.
	LZ4 Type = 1
	// ZSTD has a better ratio at higher CPU cost.
	ZSTD Type = 2
	// Gzip is supported for input streams only.
	Gzip Type = 3
)

var (
	// ErrUnknownType is returned for unsupported compression names or ids.
	ErrUnknownType = errors.New("compress: unknown type")
	// ErrCorrupt is returned for malformed blocks.
	ErrCorrupt = errors.New("compress: corrupt block")
)

// String returns the stable name of t.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	case Gzip:
		return "gzip"
	default:
		return fmt.Sprintf("compress(%d)", uint8(t))
	}
}

// ParseType returns the Type for a stable name.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zst":
		return ZSTD, nil
	case "gzip", "gz":
		return Gzip, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

// FromExtension infers the stream compression of a file name.
func FromExtension(name string) Type {
	switch strings.ToLower(path.Ext(name)) {
	case ".lz4":
		return LZ4
	case ".zst", ".zstd":
		return ZSTD
	case ".gz":
		return Gzip
	default:
		return None
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format: [uncompressed uint32][compressed uint32][data...].
// A compressed size of 0 means the data is stored uncompressed.
const headerSize = 8

// EncodeBlock compresses data into a self-sized block.
// Data that does not shrink is stored uncompressed.
func EncodeBlock(data []byte, t Type) ([]byte, error) {
	var compressed []byte
	switch t {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %s is not a block type", ErrUnknownType, t)
	}

	if len(compressed) == 0 || len(compressed) >= len(data) {
		out := make([]byte, headerSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[headerSize:], data)
		return out, nil
	}

	out := make([]byte, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[headerSize:], compressed)
	return out, nil
}

// DecodeBlock reverses EncodeBlock.
func DecodeBlock(block []byte, t Type) ([]byte, error) {
	if len(block) < headerSize {
		return nil, ErrCorrupt
	}
	size := binary.LittleEndian.Uint32(block[0:])
	csize := binary.LittleEndian.Uint32(block[4:])

	if csize == 0 {
		if uint64(len(block)) < headerSize+uint64(size) {
			return nil, ErrCorrupt
		}
		return block[headerSize : headerSize+size], nil
	}
	if uint64(len(block)) < headerSize+uint64(csize) {
		return nil, ErrCorrupt
	}
	data := block[headerSize : headerSize+csize]

	switch t {
	case LZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != size {
			return nil, ErrCorrupt
		}
		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, err
		}
		if uint32(len(out)) != size {
			return nil, ErrCorrupt
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a block type", ErrUnknownType, t)
	}
}

// NewReader wraps r with a decompressing reader for t.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case None:
		return io.NopCloser(r), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case ZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// NewWriter wraps w with a compressing writer for t.
// Closing the returned writer flushes it but does not close w.
func NewWriter(w io.Writer, t Type) (io.WriteCloser, error) {
	switch t {
	case None:
		return nopWriteCloser{w}, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case ZSTD:
		return zstd.NewWriter(w)
	case Gzip:
		return gzip.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
