// Package codec centralizes wire and report encoding.
//
// Every member of a tcp group must use the same codec; the codec name is
// exchanged during the handshake and a mismatch fails the connection.
package codec

import "strings"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch strings.ToLower(name) {
	case "json":
		return JSON{}, true
	case "go-json", "gojson":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
