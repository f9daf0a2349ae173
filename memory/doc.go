// Package memory provides Region constructors for the places a flashstring
// image can live outside Go memory.
//
// # Memory-mapped files
//
// The cached backend reads through a read-only mmap; the device backend uses
// pread on the same descriptor, so large or rarely used objects do not pull
// pages into the mapping:
//
//	f, err := memory.MapFile("assets.img")
//	defer f.Close()
//	region := f.Region("assets", base)
//
// # WebAssembly linear memory
//
// A wasm module built by image.EncodeWasm carries the image in an active data
// segment and exports its bounds. wazero's api.Memory is used as the cached
// backend directly:
//
//	mod, region, err := memory.Instantiate(ctx, rt, wasmBytes)
package memory
