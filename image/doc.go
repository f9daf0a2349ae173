// Package image builds and loads flashstring images.
//
// An image is a self-describing read-only blob: a header, a table of named
// entries and the objects they point to. Every object is a 4-byte length
// word followed by its data, padded to a 4-byte boundary.
//
//	offset  field
//	0       magic "FSTR"
//	4       version (1)
//	8       base address
//	12      image size in bytes
//	16      entry count
//	20      count x {nameAddr, objAddr, digestAddr}
//	...     objects
//
// All fields are little-endian u32 and all addresses are absolute, so an
// image must be placed at its base address. An alias entry's object is a
// single length word with flashstring.CopyBit set whose payload is the
// address of another object. digestAddr is 0 for aliases and for images
// built without digests; otherwise it points at an object holding a
// multihash of the entry data.
//
// Images can be loaded from memory (Load), memory-mapped from a file (Open)
// or found in an existing region such as wasm linear memory (FromRegion).
// EncodeWasm wraps an image in a core wasm module that places it at its base
// address.
package image
