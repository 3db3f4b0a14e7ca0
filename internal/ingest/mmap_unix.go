//go:build unix

package ingest

import (
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

// OpenMapped opens path for scanning via mmap rather than buffered
// reads, avoiding a copy through the page cache into a userspace
// buffer for large session files. The returned ReadCloser still feeds
// Parse's ordinary io.Reader path — mmap only changes how bytes get
// from disk into that stream, not how lines are framed.
func OpenMapped(path string) (io.ReadCloser, error) {
	r, err := mmap.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		// Some filesystems (overlayfs, certain network mounts) refuse
		// mmap; fall back to a plain file handle rather than failing
		// the whole scan.
		f, ferr := os.Open(path)
		if ferr != nil {
			return nil, err
		}
		return f, nil
	}
	return &mmapReader{r: r}, nil
}

type mmapReader struct {
	r      *mmap.ReaderAt
	offset int64
}

func (m *mmapReader) Read(p []byte) (int, error) {
	n, err := m.r.ReadAt(p, m.offset)
	m.offset += int64(n)
	if err == io.EOF && n > 0 {
		return n, nil
	}
	return n, err
}

func (m *mmapReader) Close() error {
	return m.r.Close()
}
