// Package codec provides the content encodings the remote client accepts
// for API responses.
package codec

import "io"

// Codec compresses and decompresses one HTTP content encoding. The client
// only decodes responses and sends request bodies uncompressed; Writer
// builds encoded payloads for fixtures and round-trip tests.
type Codec interface {
	// Reader wraps r to decode data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to encode data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Encoding returns the Content-Encoding token, e.g. "gzip" or "zstd".
	Encoding() string
}
