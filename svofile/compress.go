package svofile

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compression is the codec applied to the node stream.
type Compression uint8

const (
	CompNone Compression = 0
	CompZlib Compression = 1
	CompZstd Compression = 2
	// CompAuto tries every codec and keeps the smallest payload. It is never
	// stored in a file.
	CompAuto Compression = 0xFF
)

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompZlib:
		return "zlib"
	case CompZstd:
		return "zstd"
	case CompAuto:
		return "auto"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps a config or flag value to a codec.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompNone, nil
	case "zlib":
		return CompZlib, nil
	case "zstd":
		return CompZstd, nil
	case "auto":
		return CompAuto, nil
	}
	return CompNone, fmt.Errorf("unknown compression %q", s)
}

func compress(c Compression, raw []byte) ([]byte, Compression, error) {
	switch c {
	case CompNone:
		return raw, CompNone, nil
	case CompZlib:
		b, err := zlibCompress(raw)
		return b, CompZlib, err
	case CompZstd:
		b, err := zstdCompress(raw)
		return b, CompZstd, err
	case CompAuto:
		best, bestComp := raw, CompNone
		for _, cand := range []Compression{CompZlib, CompZstd} {
			b, _, err := compress(cand, raw)
			if err != nil {
				return nil, 0, err
			}
			if len(b) < len(best) {
				best, bestComp = b, cand
			}
		}
		return best, bestComp, nil
	}
	return nil, 0, fmt.Errorf("compression %v: %w", c, ErrFormat)
}

func decompress(c Compression, payload []byte) ([]byte, error) {
	switch c {
	case CompNone:
		return payload, nil
	case CompZlib:
		return zlibDecompress(payload)
	case CompZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(payload, nil)
	}
	return nil, fmt.Errorf("compression %v: %w", c, ErrFormat)
}

func zlibCompress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zlibDecompress(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func zstdCompress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}
