package image

import (
	"github.com/wippyai/flashstring/errors"
	"github.com/wippyai/flashstring/image/internal/binary"
	"github.com/wippyai/flashstring/memory"
)

const (
	wasmMagic   = "\x00asm"
	wasmVersion = 1
	wasmPage    = 65536
	wasmMaxPage = 65536

	secMemory = 0x05
	secGlobal = 0x06
	secExport = 0x07
	secData   = 0x0b

	valI32     = 0x7f
	opI32Const = 0x41
	opEnd      = 0x0b

	exportMemory = 0x02
	exportGlobal = 0x03
)

// EncodeWasm returns a core wasm module whose linear memory holds img at its
// base address. The module exports the memory and the image bounds as
// immutable i32 globals, which is what memory.FromModule expects. The
// minimum memory reaches from address 0 to the image end, so images meant
// for wasm should be built with a small base.
func EncodeWasm(img *Image) ([]byte, error) {
	data := img.Bytes()
	if data == nil {
		return nil, errors.InvalidInput(errors.PhaseBuild, "image bytes unavailable")
	}
	end := uint64(img.base) + uint64(len(data))
	pages := (end + wasmPage - 1) / wasmPage
	if pages > wasmMaxPage {
		return nil, errors.Overflow(errors.PhaseBuild, nil, end, "wasm32 linear memory")
	}

	w := binary.NewWriter()
	w.Raw([]byte(wasmMagic))
	w.U32LE(wasmVersion)

	w.Section(secMemory, func(s *binary.Writer) {
		s.U32(1)
		s.Byte(0x00) // min only
		s.U32(uint32(pages))
	})
	w.Section(secGlobal, func(s *binary.Writer) {
		s.U32(2)
		for _, v := range []uint32{img.base, uint32(len(data))} {
			s.Byte(valI32, 0x00)
			s.Byte(opI32Const)
			s.S32(int32(v))
			s.Byte(opEnd)
		}
	})
	w.Section(secExport, func(s *binary.Writer) {
		s.U32(3)
		s.Name(memory.ExportMemory)
		s.Byte(exportMemory)
		s.U32(0)
		s.Name(memory.ExportBase)
		s.Byte(exportGlobal)
		s.U32(0)
		s.Name(memory.ExportSize)
		s.Byte(exportGlobal)
		s.U32(1)
	})
	w.Section(secData, func(s *binary.Writer) {
		s.U32(1)
		s.U32(0) // active, memory 0
		s.Byte(opI32Const)
		s.S32(int32(img.base))
		s.Byte(opEnd)
		s.Blob(data)
	})
	return w.Bytes(), nil
}
