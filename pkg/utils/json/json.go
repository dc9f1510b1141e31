// Package json wraps JSON serialization, preferring sonic on amd64/arm64 and
// falling back to encoding/json elsewhere.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v any) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v any) error

	// NewEncoder creates an encoder writing to w.
	NewEncoder func(w io.Writer) Encoder

	// NewDecoder creates a decoder reading from r.
	NewDecoder func(r io.Reader) Decoder

	usingSonic bool
)

// Encoder is the minimal JSON encoder interface.
type Encoder interface {
	Encode(v any) error
}

// Decoder is the minimal JSON decoder interface.
type Decoder interface {
	Decode(v any) error
}

func init() {
	// sonic only ships amd64/arm64 backends
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		Marshal = sonic.Marshal
		Unmarshal = sonic.Unmarshal
		NewEncoder = func(w io.Writer) Encoder { return sonic.ConfigDefault.NewEncoder(w) }
		NewDecoder = func(r io.Reader) Decoder { return sonic.ConfigDefault.NewDecoder(r) }
		usingSonic = true
	} else {
		Marshal = stdjson.Marshal
		Unmarshal = stdjson.Unmarshal
		NewEncoder = func(w io.Writer) Encoder { return stdjson.NewEncoder(w) }
		NewDecoder = func(r io.Reader) Decoder { return stdjson.NewDecoder(r) }
	}
}

// IsUsingSonic reports whether the sonic backend is active.
func IsUsingSonic() bool {
	return usingSonic
}
