package flashstring

import (
	"encoding/binary"
	"io"
	"math"

	"go.uber.org/zap"
)

// Region is a contiguous address range that handles can point into.
type Region struct {
	Mem      Memory
	Dev      Device
	Name     string
	Base     uint32
	Size     uint32
	ReadOnly bool
}

// NewStatic creates a read-only region over data placed at base.
// data must not be modified afterwards.
func NewStatic(name string, base uint32, data []byte) *Region {
	m := NewStaticMemory(base, data)
	return &Region{
		Name:     name,
		Base:     base,
		Size:     m.size(),
		Mem:      m,
		Dev:      m,
		ReadOnly: true,
	}
}

// NewWorking creates a region over working (read/write) memory.
// Handles opened in it do not pass the read-only check.
func NewWorking(name string, base uint32, data []byte) *Region {
	r := NewStatic(name, base, data)
	r.ReadOnly = false
	return r
}

// Contains reports whether [addr, addr+n) lies inside the region.
func (r *Region) Contains(addr, n uint32) bool {
	if r == nil || addr < r.Base {
		return false
	}
	return uint64(addr-r.Base)+uint64(n) <= uint64(r.Size)
}

// End returns the first address past the region.
func (r *Region) End() uint64 {
	return uint64(r.Base) + uint64(r.Size)
}

func (r *Region) copyCached(dst []byte, addr uint32) int {
	if len(dst) == 0 {
		return 0
	}
	data, ok := r.Mem.Read(addr, uint32(len(dst)))
	if !ok {
		return 0
	}
	return copy(dst, data)
}

func (r *Region) copyDevice(dst []byte, addr uint32) int {
	if len(dst) == 0 {
		return 0
	}
	if r.Dev == nil {
		return r.copyCached(dst, addr)
	}
	devAddr, ok := r.Dev.TranslateAddress(addr)
	if !ok {
		Logger().Debug("device address translation failed",
			zap.String("region", r.Name), zap.Uint32("addr", addr))
		return 0
	}
	n, err := r.Dev.ReadDevice(dst, devAddr)
	if err != nil || n < len(dst) {
		Logger().Debug("short device read",
			zap.String("region", r.Name),
			zap.Uint32("dev_addr", devAddr),
			zap.Int("want", len(dst)),
			zap.Int("got", n),
			zap.Error(err))
	}
	if n < 0 {
		return 0
	}
	return n
}

// StaticMemory serves a byte slice mapped at a fixed base address. It is both
// the cached and the device backend of regions built over Go memory, such as
// data embedded with go:embed or an mmap'd file.
type StaticMemory struct {
	data []byte
	base uint32
}

// NewStaticMemory maps data at base. Bytes that would fall past the 32-bit
// address space are not addressable.
func NewStaticMemory(base uint32, data []byte) *StaticMemory {
	if limit := uint64(math.MaxUint32) + 1 - uint64(base); uint64(len(data)) > limit {
		data = data[:limit]
	}
	return &StaticMemory{data: data, base: base}
}

func (m *StaticMemory) size() uint32 {
	if uint64(len(m.data)) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(len(m.data))
}

func (m *StaticMemory) slice(addr, n uint32) ([]byte, bool) {
	if addr < m.base {
		return nil, false
	}
	off := uint64(addr - m.base)
	end := off + uint64(n)
	if end > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[off:end:end], true
}

// ReadByte reads a single byte.
func (m *StaticMemory) ReadByte(addr uint32) (byte, bool) {
	b, ok := m.slice(addr, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// ReadUint16Le reads a little-endian half-word.
func (m *StaticMemory) ReadUint16Le(addr uint32) (uint16, bool) {
	b, ok := m.slice(addr, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

// ReadUint32Le reads a little-endian word.
func (m *StaticMemory) ReadUint32Le(addr uint32) (uint32, bool) {
	b, ok := m.slice(addr, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// ReadUint64Le reads a little-endian double word.
func (m *StaticMemory) ReadUint64Le(addr uint32) (uint64, bool) {
	b, ok := m.slice(addr, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

// Read returns a view of byteCount bytes at addr. The view aliases the
// backing slice and must not be modified.
func (m *StaticMemory) Read(addr, byteCount uint32) ([]byte, bool) {
	return m.slice(addr, byteCount)
}

// TranslateAddress maps an address to its offset in the backing slice.
func (m *StaticMemory) TranslateAddress(addr uint32) (uint32, bool) {
	if addr < m.base || uint64(addr-m.base) > uint64(len(m.data)) {
		return 0, false
	}
	return addr - m.base, true
}

// ReadDevice copies from the backing slice at a device offset.
func (m *StaticMemory) ReadDevice(buf []byte, devAddr uint32) (int, error) {
	if uint64(devAddr) >= uint64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(buf, m.data[devAddr:])
	if n < len(buf) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}
