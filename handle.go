package flashstring

import (
	"go.uber.org/zap"

	"github.com/wippyai/flashstring/errors"
)

const (
	// CopyBit marks a length word as an alias. The remaining bits hold the
	// address of the canonical object.
	CopyBit uint32 = 0x80000000

	// LengthSize is the size of the length word preceding object data.
	LengthSize = 4

	// Alignment of objects and their data.
	Alignment = 4

	// MaxLength is the largest byte length a direct object can carry.
	MaxLength = int(^CopyBit)

	maxAliasDepth = 8
)

var (
	emptyRegion = NewStatic("empty", 0, make([]byte, LengthSize))
	empty       = Handle{v: direct{region: emptyRegion}}
)

// Empty returns the process-wide empty handle. Anything that cannot be
// resolved resolves to it.
func Empty() *Handle {
	return &empty
}

// Handle refers to a length-prefixed run of bytes in a Region.
//
// The zero value is usable and resolves to the empty handle.
type Handle struct {
	v variant
}

type variant interface {
	isVariant()
}

// direct owns the length word at addr and the data that follows it.
type direct struct {
	region *Region
	addr   uint32
	length uint32
}

// forwarding redirects to a canonical direct handle.
type forwarding struct {
	target *Handle
}

func (direct) isVariant()     {}
func (forwarding) isVariant() {}

// Open returns the canonical handle for the object whose length word is at
// addr. A length word with CopyBit set is followed to the object it names.
func Open(r *Region, addr uint32) *Handle {
	return open(r, addr, 0)
}

func open(r *Region, addr uint32, depth int) *Handle {
	if r == nil || r.Mem == nil {
		return Empty()
	}
	word, ok := r.Mem.ReadUint32Le(addr)
	if !ok {
		Logger().Debug("length word not addressable",
			zap.String("region", r.Name), zap.Uint32("addr", addr))
		return Empty()
	}
	if word&CopyBit == 0 {
		return &Handle{v: direct{region: r, addr: addr, length: word}}
	}
	if depth >= maxAliasDepth {
		Logger().Debug("alias chain too deep",
			zap.String("region", r.Name), zap.Uint32("addr", addr))
		return Empty()
	}
	target := open(r, word&^CopyBit, depth+1)
	return &Handle{v: forwarding{target: target.canonical()}}
}

// Copy returns a handle that forwards to the canonical instance of h. Copies
// of copies forward to the same canonical instance.
func (h *Handle) Copy() Handle {
	return Handle{v: forwarding{target: h.canonical()}}
}

// IsCopy reports whether h forwards to another handle instead of owning data.
func (h *Handle) IsCopy() bool {
	if h == nil {
		return false
	}
	_, ok := h.v.(forwarding)
	return ok
}

func (h *Handle) canonical() *Handle {
	if h == nil {
		return Empty()
	}
	if f, ok := h.v.(forwarding); ok && f.target != nil {
		return f.target
	}
	return h
}

// resolve returns the handle that owns the data h stands for. The result is
// always direct.
func (h *Handle) resolve() *Handle {
	if h == nil {
		return &empty
	}
	switch v := h.v.(type) {
	case forwarding:
		if v.target == nil || v.target == h {
			return &empty
		}
		if _, ok := v.target.v.(direct); !ok {
			return &empty
		}
		return v.target.resolve()
	case direct:
		if v.length == 0 {
			return &empty
		}
		if !v.verify() {
			return &empty
		}
		return h
	}
	return &empty
}

func (d direct) verify() bool {
	policy := CurrentVerifyPolicy()
	if policy == VerifyTrust {
		return true
	}
	size := LengthSize + d.length
	if d.region.ReadOnly && d.region.Contains(d.addr, size) {
		return true
	}
	err := errors.OutOfRegion(errors.PhaseResolve, d.region.Name, d.addr, size)
	if policy == VerifyFailFast {
		panic(err)
	}
	Logger().Warn("unverifiable handle resolved to empty", zap.Error(err))
	return false
}

func (h *Handle) object() direct {
	d, _ := h.resolve().v.(direct)
	return d
}

func (d direct) data() uint32 {
	return d.addr + LengthSize
}

// span clamps a read of count bytes at offset to the object length.
func (d direct) span(offset, count int) int {
	if offset < 0 || offset >= int(d.length) || count <= 0 {
		return 0
	}
	return min(int(d.length)-offset, count)
}

// Len returns the length of the data in bytes.
func (h *Handle) Len() int {
	return int(h.object().length)
}

// Size returns the number of bytes the object occupies in its region,
// including the length word and padding.
func (h *Handle) Size() int {
	return LengthSize + alignUp(h.Len())
}

// Data returns the address of the first data byte.
func (h *Handle) Data() uint32 {
	return h.object().data()
}

// Region returns the region holding the data.
func (h *Handle) Region() *Region {
	return h.object().region
}

// Read copies data starting at offset into buf through the cached backend.
// It returns the number of bytes copied, which is less than len(buf) when the
// object ends first.
func (h *Handle) Read(offset int, buf []byte) int {
	d := h.object()
	n := d.span(offset, len(buf))
	if n == 0 {
		return 0
	}
	return d.region.copyCached(buf[:n], d.data()+uint32(offset))
}

// ReadFlash is Read through the device backend, bypassing the cache. Use it
// for large or rarely accessed objects.
func (h *Handle) ReadFlash(offset int, buf []byte) int {
	d := h.object()
	n := d.span(offset, len(buf))
	if n == 0 {
		return 0
	}
	return d.region.copyDevice(buf[:n], d.data()+uint32(offset))
}

// Bytes returns a copy of the data.
func (h *Handle) Bytes() []byte {
	buf := make([]byte, h.Len())
	n := h.Read(0, buf)
	return buf[:n]
}

// String returns the data as a string.
func (h *Handle) String() string {
	return string(h.Bytes())
}

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}
