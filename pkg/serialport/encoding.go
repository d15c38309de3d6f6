package serialport

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoding resolves an IANA charset name to a text encoding.
// A nil result with nil error means the bytes are already UTF-8 and need
// no transformation.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "", "utf-8", "UTF-8", "utf8":
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("unsupported text encoding %q", name),
		}
	}
	return enc, nil
}

// decodeText converts received bytes to a string using enc. Invalid input
// is replaced rather than rejected: one malformed chunk must not break the
// delivery stream.
func decodeText(enc encoding.Encoding, data []byte) string {
	if enc == nil {
		if utf8.Valid(data) {
			return string(data)
		}
		return string([]rune(string(data))) // replaces invalid sequences
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// Decoders from ianaindex replace rather than error, but keep the
		// raw bytes as a fallback.
		return string(data)
	}
	return string(decoded)
}
