// Package noopcodec provides the identity content encoding.
package noopcodec

import (
	"io"

	"github.com/justifica/datacache/internal/codec"
)

var _ codec.Codec = (*Codec)(nil)

// Codec passes bytes through unchanged.
type Codec struct{}

// New returns an identity codec.
func New() *Codec {
	return &Codec{}
}

func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

// Encoding returns "identity".
func (c *Codec) Encoding() string {
	return "identity"
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
