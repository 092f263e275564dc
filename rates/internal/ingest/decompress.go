package ingest

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// compression identifies the on-disk codec of an input file.
type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionBzip2
	compressionXZ
)

// Magic prefixes of the supported codecs.
var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
	magicXZ    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// detectCompression inspects the first bytes of a file.
func detectCompression(head []byte) compression {
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return compressionGzip
	case bytes.HasPrefix(head, magicBzip2):
		return compressionBzip2
	case bytes.HasPrefix(head, magicXZ):
		return compressionXZ
	default:
		return compressionNone
	}
}

// openInput opens path for reading, transparently decompressing gzip,
// bzip2, or xz content. The codec is detected from magic bytes so inputs
// keep working when renamed.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}

	head := make([]byte, len(magicXZ))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("ingest: read header of %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("ingest: rewind %s: %w", path, err)
	}

	switch detectCompression(head[:n]) {
	case compressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("ingest: gzip %s: %w", path, err)
		}
		return &decompressReader{Reader: zr, file: f, codec: zr}, nil
	case compressionBzip2:
		return &decompressReader{Reader: bzip2.NewReader(f), file: f}, nil
	case compressionXZ:
		zr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("ingest: xz %s: %w", path, err)
		}
		return &decompressReader{Reader: zr, file: f}, nil
	default:
		return f, nil
	}
}

// decompressReader pairs a decompressing reader with the file underneath it.
type decompressReader struct {
	io.Reader
	file  *os.File
	codec io.Closer // non-nil only for codecs that need their own Close
}

func (d *decompressReader) Close() error {
	var codecErr error
	if d.codec != nil {
		codecErr = d.codec.Close()
	}
	if err := d.file.Close(); err != nil {
		return err
	}
	return codecErr
}
