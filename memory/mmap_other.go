//go:build !unix

package memory

import (
	"math"
	"os"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
)

// MappedFile holds a file read into memory on platforms without mmap.
type MappedFile struct {
	path string
	data []byte
}

// MapFile reads path into memory.
func MapFile(path string) (*MappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, "read "+path, err)
	}
	if len(data) == 0 {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{path}, "file is empty")
	}
	if uint64(len(data)) > math.MaxUint32 {
		return nil, errors.Overflow(errors.PhaseLoad, []string{path}, len(data), "32-bit address space")
	}
	return &MappedFile{path: path, data: data}, nil
}

// Bytes returns the file contents.
func (f *MappedFile) Bytes() []byte {
	return f.data
}

// Region returns a read-only region that places the file at base.
func (f *MappedFile) Region(name string, base uint32) *flashstring.Region {
	return flashstring.NewStatic(name, base, f.data)
}

// Close releases the contents.
func (f *MappedFile) Close() error {
	f.data = nil
	return nil
}
