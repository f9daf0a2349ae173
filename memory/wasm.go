package memory

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
)

// Export names of a module that carries an image.
const (
	ExportMemory = "memory"
	ExportBase   = "fstr_base"
	ExportSize   = "fstr_size"
)

// FromModule returns a read-only region over the image held in an
// instantiated module's linear memory.
func FromModule(mod api.Module) (*flashstring.Region, error) {
	if mod == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil module")
	}
	mem := mod.ExportedMemory(ExportMemory)
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "exported memory", ExportMemory)
	}
	base, err := exportedU32(mod, ExportBase)
	if err != nil {
		return nil, err
	}
	size, err := exportedU32(mod, ExportSize)
	if err != nil {
		return nil, err
	}
	if uint64(base)+uint64(size) > uint64(mem.Size()) {
		return nil, errors.New(errors.PhaseLoad, errors.KindOutOfBounds).
			Region(mod.Name(), base).
			Detail("image of %d bytes exceeds linear memory of %d bytes", size, mem.Size()).
			Build()
	}

	Logger().Debug("image region in linear memory",
		zapModule(mod), zapRange(base, size))

	return &flashstring.Region{
		Name:     "wasm:" + mod.Name(),
		Base:     base,
		Size:     size,
		Mem:      mem,
		Dev:      linearDevice{mem: mem},
		ReadOnly: true,
	}, nil
}

// Instantiate compiles and instantiates wasm in rt and returns the module with
// the region over its image. The caller closes the module.
func Instantiate(ctx context.Context, rt wazero.Runtime, wasm []byte) (api.Module, *flashstring.Region, error) {
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, nil, errors.Load("compile image module", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return nil, nil, errors.Load("instantiate image module", err)
	}
	region, err := FromModule(mod)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, nil, err
	}
	return mod, region, nil
}

func exportedU32(mod api.Module, name string) (uint32, error) {
	g := mod.ExportedGlobal(name)
	if g == nil {
		return 0, errors.NotFound(errors.PhaseLoad, "exported global", name)
	}
	if g.Type() != api.ValueTypeI32 {
		return 0, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path(name).
			Detail("global has type %s, want i32", api.ValueTypeName(g.Type())).
			Build()
	}
	return uint32(g.Get()), nil
}

// linearDevice reads linear memory directly. Linear memory has no cache of its
// own, so device addresses are the memory offsets.
type linearDevice struct {
	mem api.Memory
}

func (d linearDevice) TranslateAddress(addr uint32) (uint32, bool) {
	return addr, addr <= d.mem.Size()
}

func (d linearDevice) ReadDevice(buf []byte, devAddr uint32) (int, error) {
	n := uint32(len(buf))
	if size := d.mem.Size(); devAddr >= size {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", devAddr)
	} else if uint64(devAddr)+uint64(n) > uint64(size) {
		n = size - devAddr
	}
	data, ok := d.mem.Read(devAddr, n)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", devAddr, n)
	}
	return copy(buf, data), nil
}
