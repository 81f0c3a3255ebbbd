// Package zstdcodec provides the zstd content encoding.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/justifica/datacache/internal/codec"
)

var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd.
type Codec struct{}

// New returns a zstd codec.
func New() *Codec {
	return &Codec{}
}

func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

// Encoding returns "zstd".
func (c *Codec) Encoding() string {
	return "zstd"
}
