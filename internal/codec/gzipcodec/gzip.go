// Package gzipcodec provides the gzip content encoding.
package gzipcodec

import (
	"compress/gzip"
	"io"

	"github.com/justifica/datacache/internal/codec"
)

var _ codec.Codec = (*Codec)(nil)

// Codec implements gzip.
type Codec struct{}

// New returns a gzip codec.
func New() *Codec {
	return &Codec{}
}

func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

// Encoding returns "gzip".
func (c *Codec) Encoding() string {
	return "gzip"
}
