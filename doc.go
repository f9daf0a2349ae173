// Package flashstring provides handles onto length-prefixed byte strings and
// typed arrays that live in a read-only memory region, separate from working
// memory.
//
// Data is never copied into working memory wholesale. A Handle points at a
// 32-bit length word followed by the raw bytes, and every access goes through
// the region's read backends.
//
// # Architecture Overview
//
//	flashstring/        Handle, Array, Iterator, Reader, Region and backends
//	├── memory/         Region constructors over mmap'd files and wazero memory
//	├── image/          Image builder and loader (the embedding mechanism)
//	├── errors/         Structured error types
//	└── cmd/fstr/       Command line tool for packing and inspecting images
//
// # Handles
//
// A handle is either direct (it owns the length word and trailing bytes) or
// forwarding (a copy that redirects to the canonical handle):
//
//	h := flashstring.Open(region, addr) // direct, canonical
//	c := h.Copy()                        // forwarding, IsCopy() == true
//	c.Len() == h.Len()                   // always
//
// On the image itself the same distinction is encoded in the length word: a
// word with CopyBit set is an alias whose remaining bits are the address of the
// canonical object.
//
// # Reads
//
// Two backends are available per call:
//
//	n := h.Read(0, buf)      // cached backend (Region.Mem)
//	n := h.ReadFlash(0, buf) // device backend (Region.Dev), bypasses the cache
//
// Reads are clamped to the object length and return the number of bytes
// copied; they never fail.
//
// # Typed arrays
//
//	temps := flashstring.NewArray[int16](h)
//	for it := temps.Begin(); it != temps.End(); it = it.Next() {
//	    fmt.Println(it.Value())
//	}
//
// Element loads are dispatched by element size when the array is created:
// byte, half-word, word or double-word loads through the region's Memory.
//
// # Verification
//
// Direct handles are checked against their region before use. Under
// VerifyDegrade (the default) a handle outside a read-only region resolves to
// the empty handle; VerifyFailFast panics instead and VerifyTrust skips the
// check.
package flashstring
