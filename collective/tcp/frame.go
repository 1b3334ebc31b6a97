package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/distkmeans/codec"
	"github.com/hupe1980/distkmeans/collective"
	"github.com/hupe1980/distkmeans/internal/compress"
)

// ErrFrameTooLarge is returned when an incoming frame exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("tcp: frame too large")

type kind uint8

const (
	kindHello kind = iota + 1
	kindWelcome
	kindReject
	kindData
	kindAbort
	kindBye
)

// message is the single wire type. Only the fields relevant to Kind are set.
type message struct {
	Kind kind `json:"kind"`
	Rank int  `json:"rank"`

	// Handshake.
	World       int    `json:"world,omitempty"`
	Codec       string `json:"codec,omitempty"`
	Compression string `json:"compression,omitempty"`

	// Collective.
	Seq    uint64        `json:"seq,omitempty"`
	Op     collective.Op `json:"op,omitempty"`
	Root   int           `json:"root,omitempty"`
	Len    int           `json:"len,omitempty"`
	Floats []float64     `json:"f,omitempty"`
	Ints   []int64       `json:"i,omitempty"`
	Labels []int32       `json:"l,omitempty"`

	// Abort and reject.
	Cause string `json:"cause,omitempty"`
}

// framer reads and writes length-prefixed frames: [len uint32 BE][block].
type framer struct {
	codec       codec.Codec
	compression compress.Type
	maxFrame    int
}

func (f framer) write(w io.Writer, m *message) error {
	payload, err := f.codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("tcp: encode %v: %w", m.Kind, err)
	}
	block, err := compress.EncodeBlock(payload, f.compression)
	if err != nil {
		return err
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(block)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(block)
	return err
}

func (f framer) read(r io.Reader) (*message, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if f.maxFrame > 0 && int64(n) > int64(f.maxFrame) {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	block := make([]byte, n)
	if _, err := io.ReadFull(r, block); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	payload, err := compress.DecodeBlock(block, f.compression)
	if err != nil {
		return nil, err
	}
	m := &message{}
	if err := f.codec.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("tcp: decode frame: %w", err)
	}
	return m, nil
}

// handshakeFramer is used for hello/welcome so peers can detect codec and
// compression mismatches before relying on them.
func handshakeFramer() framer {
	return framer{codec: codec.JSON{}, compression: compress.None, maxFrame: 64 << 10}
}

func (k kind) String() string {
	switch k {
	case kindHello:
		return "hello"
	case kindWelcome:
		return "welcome"
	case kindReject:
		return "reject"
	case kindData:
		return "data"
	case kindAbort:
		return "abort"
	case kindBye:
		return "bye"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}
