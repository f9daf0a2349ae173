package image

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/multiformats/go-multihash"
	"go.uber.org/zap"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
)

const (
	// Magic identifies an image.
	Magic = "FSTR"

	// Version is the layout version written by Builder.
	Version uint32 = 1

	// DefaultBase is where images are placed unless WithBase says otherwise.
	DefaultBase uint32 = 0x40200000

	headerSize = 20
	entrySize  = 12
)

// Option configures a Builder.
type Option func(*Builder)

// WithBase sets the address the image is placed at. It must be 4-byte
// aligned.
func WithBase(base uint32) Option {
	return func(b *Builder) {
		b.base = base
	}
}

// WithDigests controls whether a multihash digest is stored for each
// non-alias entry. Digests are on by default.
func WithDigests(on bool) Option {
	return func(b *Builder) {
		b.digests = on
	}
}

// Builder collects named objects and lays them out as an image.
type Builder struct {
	names   map[string]int
	entries []pending
	base    uint32
	digests bool
}

type pending struct {
	name   string
	target string
	data   []byte
	alias  bool
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		base:    DefaultBase,
		digests: true,
		names:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

func (b *Builder) add(p pending) error {
	if p.name == "" {
		return errors.InvalidInput(errors.PhaseBuild, "entry name is empty")
	}
	if _, ok := b.names[p.name]; ok {
		return errors.Duplicate(errors.PhaseBuild, "entry", p.name)
	}
	if len(p.name) > flashstring.MaxLength {
		return errors.Overflow(errors.PhaseBuild, []string{p.name}, len(p.name), "name length")
	}
	if len(p.data) > flashstring.MaxLength {
		return errors.Overflow(errors.PhaseBuild, []string{p.name}, len(p.data), "object length")
	}
	b.names[p.name] = len(b.entries)
	b.entries = append(b.entries, p)
	return nil
}

// AddBytes adds an object holding a copy of data.
func (b *Builder) AddBytes(name string, data []byte) error {
	return b.add(pending{name: name, data: append([]byte(nil), data...)})
}

// AddString adds an object holding the bytes of s.
func (b *Builder) AddString(name, s string) error {
	return b.add(pending{name: name, data: []byte(s)})
}

// AddFile adds an object holding the contents of the file at path.
func (b *Builder) AddFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IO(errors.PhaseBuild, "read "+path, err)
	}
	return b.add(pending{name: name, data: data})
}

// AddArray adds an object holding values as little-endian elements.
func AddArray[T flashstring.Element](b *Builder, name string, values []T) error {
	data, err := binary.Append(nil, binary.LittleEndian, values)
	if err != nil {
		return errors.Wrap(errors.PhaseBuild, errors.KindUnsupported, err, "encode array "+name)
	}
	return b.add(pending{name: name, data: data})
}

// AddAlias adds an entry that forwards to the object of target. target may
// be added later and may itself be an alias.
func (b *Builder) AddAlias(name, target string) error {
	return b.add(pending{name: name, target: target, alias: true})
}

type placed struct {
	name, obj, digest uint32
	sum               []byte
}

// Build lays out the collected entries and returns the loaded image.
func (b *Builder) Build() (*Image, error) {
	data, err := b.encode()
	if err != nil {
		return nil, err
	}
	img, err := Load(data, WithName("build"))
	if err != nil {
		return nil, err
	}
	Logger().Debug("built image",
		zap.Int("entries", len(b.entries)),
		zap.Uint32("base", b.base),
		zap.Int("size", len(data)))
	return img, nil
}

func (b *Builder) encode() ([]byte, error) {
	if b.base%flashstring.Alignment != 0 {
		return nil, errors.Misaligned(errors.PhaseBuild, "image", b.base, flashstring.Alignment)
	}
	if err := b.checkAliases(); err != nil {
		return nil, err
	}

	layout := make([]placed, len(b.entries))
	cursor := uint64(b.base) + headerSize + entrySize*uint64(len(b.entries))
	for i, e := range b.entries {
		layout[i].name = uint32(cursor)
		cursor += objectSize(len(e.name))
		layout[i].obj = uint32(cursor)
		if e.alias {
			cursor += flashstring.LengthSize
			continue
		}
		cursor += objectSize(len(e.data))
		if !b.digests {
			continue
		}
		sum, err := multihash.Sum(e.data, multihash.SHA2_256, -1)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseBuild, errors.KindInvalidData, err, "digest "+e.name)
		}
		layout[i].sum = sum
		layout[i].digest = uint32(cursor)
		cursor += objectSize(len(sum))
		if cursor > math.MaxUint32 {
			break
		}
	}
	if cursor > math.MaxUint32 {
		return nil, errors.Overflow(errors.PhaseBuild, nil, cursor, "32-bit address space")
	}

	size := uint32(cursor - uint64(b.base))
	out := make([]byte, 0, size)
	out = append(out, Magic...)
	out = binary.LittleEndian.AppendUint32(out, Version)
	out = binary.LittleEndian.AppendUint32(out, b.base)
	out = binary.LittleEndian.AppendUint32(out, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b.entries)))
	for _, p := range layout {
		out = binary.LittleEndian.AppendUint32(out, p.name)
		out = binary.LittleEndian.AppendUint32(out, p.obj)
		out = binary.LittleEndian.AppendUint32(out, p.digest)
	}
	for i, e := range b.entries {
		out = appendObject(out, []byte(e.name))
		if e.alias {
			target := layout[b.names[e.target]].obj
			out = binary.LittleEndian.AppendUint32(out, target|flashstring.CopyBit)
			continue
		}
		out = appendObject(out, e.data)
		if layout[i].sum != nil {
			out = appendObject(out, layout[i].sum)
		}
	}
	return out, nil
}

// checkAliases rejects aliases whose chain does not end at a data object
// within the depth handles follow.
func (b *Builder) checkAliases() error {
	for _, e := range b.entries {
		if !e.alias {
			continue
		}
		cur := e
		for depth := 0; cur.alias; depth++ {
			i, ok := b.names[cur.target]
			if !ok {
				return errors.NotFound(errors.PhaseBuild, "alias target", cur.target)
			}
			if depth >= maxAliasChain {
				return errors.New(errors.PhaseBuild, errors.KindInvalidData).
					Path(e.name).
					Detail("alias chain longer than %d or cyclic", maxAliasChain).
					Build()
			}
			cur = b.entries[i]
		}
	}
	return nil
}

// maxAliasChain matches the depth flashstring.Open follows.
const maxAliasChain = 8

func objectSize(n int) uint64 {
	return flashstring.LengthSize + uint64(alignUp(n))
}

func appendObject(out, data []byte) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	for pad := alignUp(len(data)) - len(data); pad > 0; pad-- {
		out = append(out, 0)
	}
	return out
}

func alignUp(n int) int {
	return (n + flashstring.Alignment - 1) &^ (flashstring.Alignment - 1)
}
