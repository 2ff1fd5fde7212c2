package monitor

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CaptureCompression is the compression format of a recorded serial capture.
type CaptureCompression int

const (
	CaptureNone CaptureCompression = iota
	CaptureGzip
	CaptureZstd
	CaptureXZ
)

func (c CaptureCompression) String() string {
	switch c {
	case CaptureGzip:
		return "gzip"
	case CaptureZstd:
		return "zstd"
	case CaptureXZ:
		return "xz"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// DetectCaptureCompression inspects the leading bytes of a capture.
func DetectCaptureCompression(header []byte) CaptureCompression {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return CaptureGzip
	case bytes.HasPrefix(header, zstdMagic):
		return CaptureZstd
	case bytes.HasPrefix(header, xzMagic):
		return CaptureXZ
	}
	return CaptureNone
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type readCloser struct {
	io.Reader
	io.Closer
}

// NewCaptureReader returns a reader of the decompressed capture contents. The
// format is detected from magic bytes, so file extensions do not matter.
func NewCaptureReader(r io.Reader) (io.ReadCloser, CaptureCompression, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CaptureNone, fmt.Errorf("read capture header: %w", err)
	}
	kind := DetectCaptureCompression(header)
	switch kind {
	case CaptureGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("gzip capture: %w", err)
		}
		return gz, kind, nil
	case CaptureZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("zstd capture: %w", err)
		}
		return dec.IOReadCloser(), kind, nil
	case CaptureXZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("xz capture: %w", err)
		}
		return io.NopCloser(xr), kind, nil
	}
	return io.NopCloser(br), kind, nil
}

// OpenCapture opens a recorded serial capture for replay.
func OpenCapture(path string) (*ReaderSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	rc, kind, err := NewCaptureReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	Infof("replaying %s (compression=%s)", path, kind)
	return NewReaderSource(readCloser{Reader: rc, Closer: multiCloser{rc, f}}), nil
}
