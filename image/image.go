package image

import (
	"encoding/binary"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
	"github.com/wippyai/flashstring/memory"
)

// Entry is one named object in an image.
type Entry struct {
	Handle *flashstring.Handle
	Name   string
	Digest []byte // multihash of the data, nil when not recorded
	Addr   uint32 // address of the entry's length word
}

// Alias reports whether the entry forwards to another entry's object.
func (e Entry) Alias() bool {
	return e.Handle.IsCopy()
}

// Image is a parsed image resident in a region.
type Image struct {
	region  *flashstring.Region
	closer  io.Closer
	index   map[string]int
	data    []byte
	entries []Entry
	base    uint32
	size    uint32
}

// LoadOption configures how an image is loaded.
type LoadOption func(*loadConfig)

type loadConfig struct {
	name     string
	noDevice bool
}

// WithName sets the name of the region the image is loaded into.
func WithName(name string) LoadOption {
	return func(c *loadConfig) {
		c.name = name
	}
}

// WithoutDevice drops the uncached backend so that ReadFlash is served from
// the cached one.
func WithoutDevice() LoadOption {
	return func(c *loadConfig) {
		c.noDevice = true
	}
}

func newLoadConfig(def string, opts []LoadOption) loadConfig {
	c := loadConfig{name: def}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Load parses an image held in data. data must not be modified while the
// image is in use.
func Load(data []byte, opts ...LoadOption) (*Image, error) {
	cfg := newLoadConfig("image", opts)
	base, err := headerBase(data)
	if err != nil {
		return nil, err
	}
	region := flashstring.NewStatic(cfg.name, base, data)
	if cfg.noDevice {
		region.Dev = nil
	}
	img, err := FromRegion(region)
	if err != nil {
		return nil, err
	}
	img.data = data[:img.size]
	return img, nil
}

// Open memory-maps the image file at path. The image must be closed to
// release the mapping.
func Open(path string, opts ...LoadOption) (*Image, error) {
	cfg := newLoadConfig(path, opts)
	f, err := memory.MapFile(path)
	if err != nil {
		return nil, err
	}
	base, err := headerBase(f.Bytes())
	if err != nil {
		f.Close()
		return nil, err
	}
	region := f.Region(cfg.name, base)
	if cfg.noDevice {
		region.Dev = nil
	}
	img, err := FromRegion(region)
	if err != nil {
		f.Close()
		return nil, err
	}
	img.data = f.Bytes()[:img.size]
	img.closer = f
	return img, nil
}

func headerBase(data []byte) (uint32, error) {
	if len(data) < headerSize {
		return 0, errors.Load("image shorter than its header", nil)
	}
	if string(data[:len(Magic)]) != Magic {
		return 0, errors.Load("bad magic", nil)
	}
	return binary.LittleEndian.Uint32(data[8:]), nil
}

// FromRegion parses an image whose header sits at the start of region.
func FromRegion(region *flashstring.Region) (*Image, error) {
	if region == nil || region.Mem == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "no region")
	}
	p := parser{region: region}
	img, err := p.parse()
	if err != nil {
		return nil, err
	}
	Logger().Debug("loaded image",
		zap.String("region", region.Name),
		zap.Uint32("base", img.base),
		zap.Uint32("size", img.size),
		zap.Int("entries", len(img.entries)))
	return img, nil
}

type parser struct {
	region *flashstring.Region
	err    error
}

func (p *parser) u32(addr uint32) uint32 {
	if p.err != nil {
		return 0
	}
	v, ok := p.region.Mem.ReadUint32Le(addr)
	if !ok {
		p.err = errors.OutOfRegion(errors.PhaseLoad, p.region.Name, addr, 4)
	}
	return v
}

func (p *parser) parse() (*Image, error) {
	r := p.region
	magic, ok := r.Mem.Read(r.Base, uint32(len(Magic)))
	if !ok || string(magic) != Magic {
		return nil, errors.Load("bad magic", nil)
	}
	version := p.u32(r.Base + 4)
	base := p.u32(r.Base + 8)
	size := p.u32(r.Base + 12)
	count := p.u32(r.Base + 16)
	if p.err != nil {
		return nil, p.err
	}
	if version != Version {
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Detail("image version %d", version).
			Value(version).
			Build()
	}
	if base != r.Base {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Region(r.Name, r.Base).
			Detail("image built for base 0x%08x", base).
			Build()
	}
	if size > r.Size {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Detail("image size %d exceeds region size %d", size, r.Size).
			Build()
	}
	tableEnd := uint64(headerSize) + entrySize*uint64(count)
	if tableEnd > uint64(size) {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Detail("entry table of %d entries exceeds image size %d", count, size).
			Build()
	}

	img := &Image{
		region:  r,
		base:    base,
		size:    size,
		index:   make(map[string]int, count),
		entries: make([]Entry, 0, count),
	}
	objects := base + uint32(tableEnd)
	end := uint64(base) + uint64(size)
	for i := range count {
		at := base + headerSize + entrySize*i
		nameAddr := p.u32(at)
		objAddr := p.u32(at + 4)
		digestAddr := p.u32(at + 8)
		if p.err != nil {
			return nil, p.err
		}

		name, err := p.object(nameAddr, objects, end)
		if err != nil {
			return nil, err
		}
		obj, err := p.object(objAddr, objects, end)
		if err != nil {
			return nil, err
		}
		e := Entry{Name: name.String(), Addr: objAddr, Handle: obj}
		if digestAddr != 0 {
			digest, err := p.object(digestAddr, objects, end)
			if err != nil {
				return nil, err
			}
			e.Digest = digest.Bytes()
		}
		if _, dup := img.index[e.Name]; dup {
			return nil, errors.Duplicate(errors.PhaseLoad, "entry", e.Name)
		}
		img.index[e.Name] = len(img.entries)
		img.entries = append(img.entries, e)
	}
	return img, nil
}

// object opens the object at addr and checks that it lies in [lo, end).
func (p *parser) object(addr, lo uint32, end uint64) (*flashstring.Handle, error) {
	if addr%flashstring.Alignment != 0 {
		return nil, errors.Misaligned(errors.PhaseLoad, p.region.Name, addr, flashstring.Alignment)
	}
	if addr < lo || uint64(addr)+flashstring.LengthSize > end {
		return nil, errors.New(errors.PhaseLoad, errors.KindOutOfBounds).
			Region(p.region.Name, addr).
			Detail("object outside image").
			Build()
	}
	word := p.u32(addr)
	if p.err != nil {
		return nil, p.err
	}
	if word&flashstring.CopyBit == 0 && uint64(addr)+flashstring.LengthSize+uint64(word) > end {
		return nil, errors.New(errors.PhaseLoad, errors.KindOutOfBounds).
			Region(p.region.Name, addr).
			Detail("%d data bytes run past image end", word).
			Build()
	}
	h := flashstring.Open(p.region, addr)
	if h.Len() > 0 && uint64(h.Data())+uint64(h.Len()) > end {
		return nil, errors.New(errors.PhaseLoad, errors.KindOutOfBounds).
			Region(p.region.Name, addr).
			Detail("%d data bytes run past image end", h.Len()).
			Build()
	}
	return h, nil
}

// Base returns the address the image is placed at.
func (img *Image) Base() uint32 {
	return img.base
}

// Size returns the image size in bytes.
func (img *Image) Size() uint32 {
	return img.size
}

// Region returns the region holding the image.
func (img *Image) Region() *flashstring.Region {
	return img.region
}

// Len returns the number of entries.
func (img *Image) Len() int {
	return len(img.entries)
}

// Entries returns the entries in table order.
func (img *Image) Entries() []Entry {
	return append([]Entry(nil), img.entries...)
}

// Entry returns the entry called name.
func (img *Image) Entry(name string) (Entry, bool) {
	i, ok := img.index[name]
	if !ok {
		return Entry{}, false
	}
	return img.entries[i], true
}

// Lookup returns the handle of the entry called name.
func (img *Image) Lookup(name string) (*flashstring.Handle, bool) {
	e, ok := img.Entry(name)
	return e.Handle, ok
}

// Bytes returns the raw image. For images found in a region the bytes are
// copied out of the region's memory.
func (img *Image) Bytes() []byte {
	if img.data != nil {
		return img.data
	}
	data, ok := img.region.Mem.Read(img.base, img.size)
	if !ok {
		return nil
	}
	return append([]byte(nil), data...)
}

// WriteFile writes the raw image to path.
func (img *Image) WriteFile(path string) error {
	if err := os.WriteFile(path, img.Bytes(), 0o644); err != nil {
		return errors.IO(errors.PhaseBuild, "write "+path, err)
	}
	return nil
}

// Close releases the file mapping of an image returned by Open. Handles
// from the image must not be used afterwards.
func (img *Image) Close() error {
	if img.closer == nil {
		return nil
	}
	err := img.closer.Close()
	img.closer = nil
	return err
}
