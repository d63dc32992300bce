package bridge

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"
)

// Frame is the marshalled form of one native call: an argument vector of
// NUL-terminated UTF-8 strings and an optional NUL-terminated JSON options
// blob. A Frame belongs to a single call and must not be shared.
type Frame struct {
	// Args holds one NUL-terminated buffer per argument.
	Args [][]byte
	// Options is the NUL-terminated JSON text, or nil for "no options".
	Options []byte
}

// Marshal builds the Frame for tokens and options.
//
// A nil options value means no options; backends pass a NULL pointer for
// it. Any other value, including an empty map, is serialized with
// encoding/json, so map keys are emitted in sorted order.
func Marshal(tokens []string, options any) (*Frame, error) {
	if len(tokens) > math.MaxInt32 {
		return nil, &EncodingError{Index: -1, Reason: "too many arguments"}
	}

	f := &Frame{Args: make([][]byte, len(tokens))}
	for i, tok := range tokens {
		if strings.IndexByte(tok, 0) >= 0 {
			return nil, &EncodingError{Index: i, Reason: "embedded NUL byte"}
		}
		if !utf8.ValidString(tok) {
			return nil, &EncodingError{Index: i, Reason: "invalid UTF-8"}
		}
		buf := make([]byte, len(tok)+1)
		copy(buf, tok)
		f.Args[i] = buf
	}

	if options != nil {
		data, err := json.Marshal(options)
		if err != nil {
			return nil, &SerializationError{Err: err}
		}
		f.Options = append(data, 0)
	}
	return f, nil
}

// Argc returns the argument count passed to the entry point.
func (f *Frame) Argc() int32 {
	return int32(len(f.Args))
}

// Strings decodes the argument buffers back to text.
func (f *Frame) Strings() []string {
	out := make([]string, len(f.Args))
	for i, b := range f.Args {
		out[i] = cString(b)
	}
	return out
}

// OptionsJSON returns the options text and whether options were supplied.
func (f *Frame) OptionsJSON() (string, bool) {
	if f.Options == nil {
		return "", false
	}
	return cString(f.Options), true
}

// cString reads up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
