//go:build unix

package memory

import (
	"math"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
)

// MappedFile is a file mapped read-only into the address space.
type MappedFile struct {
	path string
	data []byte
	fd   int
}

// MapFile maps path read-only.
func MapFile(path string) (*MappedFile, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.IO(errors.PhaseLoad, "open "+path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		_ = unix.Close(fd)
		return nil, errors.IO(errors.PhaseLoad, "stat "+path, err)
	}
	if stat.Size == 0 {
		_ = unix.Close(fd)
		return nil, errors.InvalidData(errors.PhaseLoad, []string{path}, "file is empty")
	}
	if stat.Size > math.MaxUint32 {
		_ = unix.Close(fd)
		return nil, errors.Overflow(errors.PhaseLoad, []string{path}, stat.Size, "32-bit address space")
	}

	data, err := unix.Mmap(fd, 0, int(stat.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, errors.IO(errors.PhaseLoad, "mmap "+path, err)
	}

	Logger().Debug("mapped image file", zap.String("path", path), zap.Int("size", len(data)))

	return &MappedFile{path: path, data: data, fd: fd}, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (f *MappedFile) Bytes() []byte {
	return f.data
}

// Region returns a read-only region that places the file at base. Cached
// reads go through the mapping, device reads through pread.
func (f *MappedFile) Region(name string, base uint32) *flashstring.Region {
	mem := flashstring.NewStaticMemory(base, f.data)
	size := uint32(len(f.data))
	if limit := uint64(math.MaxUint32) + 1 - uint64(base); uint64(size) > limit {
		size = uint32(limit)
	}
	return &flashstring.Region{
		Name:     name,
		Base:     base,
		Size:     size,
		Mem:      mem,
		Dev:      &fileDevice{fd: f.fd, base: base, size: size},
		ReadOnly: true,
	}
}

// Close unmaps the file and closes its descriptor.
func (f *MappedFile) Close() error {
	if f.data == nil {
		return nil
	}
	err := unix.Munmap(f.data)
	f.data = nil
	if cerr := unix.Close(f.fd); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return errors.IO(errors.PhaseLoad, "unmap "+f.path, err)
	}
	return nil
}

// fileDevice reads the file with pread, bypassing the mapping.
type fileDevice struct {
	fd   int
	base uint32
	size uint32
}

func (d *fileDevice) TranslateAddress(addr uint32) (uint32, bool) {
	if addr < d.base || addr-d.base > d.size {
		return 0, false
	}
	return addr - d.base, true
}

// ReadDevice invokes pread until buf is full, the file ends or an error
// occurs; pread may return short counts.
func (d *fileDevice) ReadDevice(buf []byte, devAddr uint32) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := unix.Pread(d.fd, buf[total:], int64(devAddr)+int64(total))
		if n > 0 {
			total += n
		}
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, errors.IO(errors.PhaseDevice, "pread", err)
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
