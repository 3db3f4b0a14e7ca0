//go:build !unix

package ingest

import (
	"io"
	"os"
)

// OpenMapped opens path for scanning. Platforms without the unix mmap
// path (windows, wasm) fall back to a plain buffered file handle; Parse
// behaves identically either way since it only ever sees an io.Reader.
func OpenMapped(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
