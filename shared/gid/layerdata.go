package gid

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var (
	ErrUnsupportedEncoding    = errors.New("unsupported layer encoding")
	ErrUnsupportedCompression = errors.New("unsupported layer compression")
	ErrTruncatedData          = errors.New("layer data is not a whole number of uint32 values")
)

// DecodeLayerBuffer turns the data string of a base64 encoded layer into
// packed cell values. When compression is set the decoded bytes are
// inflated first ("zlib", "gzip" or "zstd"). Bytes are read as
// little-endian uint32s.
func DecodeLayerBuffer(encoding, compression, data string) ([]uint32, error) {
	if encoding != "base64" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}

	raw, err := base64.StdEncoding.DecodeString(stripSpace(data))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	switch compression {
	case "":
	case "zlib":
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("open zlib stream: %w", err)
		}
		defer r.Close()
		if raw, err = io.ReadAll(r); err != nil {
			return nil, fmt.Errorf("inflate zlib: %w", err)
		}
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer r.Close()
		if raw, err = io.ReadAll(r); err != nil {
			return nil, fmt.Errorf("inflate gzip: %w", err)
		}
	case "zstd":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("open zstd decoder: %w", err)
		}
		defer dec.Close()
		if raw, err = dec.DecodeAll(raw, nil); err != nil {
			return nil, fmt.Errorf("inflate zstd: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCompression, compression)
	}

	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedData, len(raw))
	}

	cells := make([]uint32, len(raw)/4)
	for i := range cells {
		cells[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return cells, nil
}

// EncodeLayerBuffer is the inverse of DecodeLayerBuffer for base64 data with
// no compression, "zlib" or "gzip".
func EncodeLayerBuffer(compression string, cells []uint32) (string, error) {
	raw := make([]byte, len(cells)*4)
	for i, c := range cells {
		binary.LittleEndian.PutUint32(raw[i*4:], c)
	}

	var buf bytes.Buffer
	switch compression {
	case "":
		buf.Write(raw)
	case "zlib":
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return "", fmt.Errorf("deflate zlib: %w", err)
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("deflate zlib: %w", err)
		}
	case "gzip":
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return "", fmt.Errorf("deflate gzip: %w", err)
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("deflate gzip: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCompression, compression)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// TMX files wrap base64 payloads over several indented lines.
func stripSpace(s string) string {
	if !strings.ContainsAny(s, " \t\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
