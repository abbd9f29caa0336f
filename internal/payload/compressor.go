package payload

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compressor turns an encoded envelope into the transmitted payload.
// Output must be deterministic for a given input.
//
// zlib is the default: the ingestion service's reference payloads are zlib
// streams (base64 "eJ..."). gzip is selected by name.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Name() string
}

// NewCompressor returns the compressor for a configured algorithm name.
// An empty name selects zlib.
func NewCompressor(name string, level int) (Compressor, error) {
	switch name {
	case "", "zlib":
		return NewZlib(level)
	case "gzip":
		return NewGzip(level)
	default:
		return nil, fmt.Errorf("unsupported compression %q", name)
	}
}

type zlibCompressor struct {
	level int
}

// NewZlib returns a zlib compressor. Use zlib.DefaultCompression (-1) for the default level.
func NewZlib(level int) (Compressor, error) {
	if _, err := zlib.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return zlibCompressor{level: level}, nil
}

func (c zlibCompressor) Name() string { return "zlib" }

func (c zlibCompressor) Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	z, err := zlib.NewWriterLevel(&out, c.level)
	if err != nil {
		return nil, fmt.Errorf("creating zlib writer: %w", err)
	}
	if _, err := z.Write(data); err != nil {
		z.Close()
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := z.Close(); err != nil {
		return nil, fmt.Errorf("closing zlib writer: %w", err)
	}
	return out.Bytes(), nil
}

type gzipCompressor struct {
	level int
}

// NewGzip returns a gzip compressor with an empty header, so output is
// independent of file names and modification times.
func NewGzip(level int) (Compressor, error) {
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return gzipCompressor{level: level}, nil
}

func (c gzipCompressor) Name() string { return "gzip" }

func (c gzipCompressor) Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	z, err := gzip.NewWriterLevel(&out, c.level)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := z.Write(data); err != nil {
		z.Close()
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := z.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}
	return out.Bytes(), nil
}
