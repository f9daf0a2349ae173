// Package errors provides structured error types for the flashstring library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: entry path, region name and address, element type
// and cause chain.
//
// The read path of a handle never returns errors; these types surface at the
// edges of the library: building and loading images, mapping files, loading wasm
// modules, and as the panic value of the fail-fast verify policy.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoad, errors.KindMisaligned).
//		Path("images", "fonts").
//		Region("irom", 0x40200002).
//		Detail("object is not word aligned").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRegion(errors.PhaseResolve, "irom", addr, size)
//	err := errors.OutOfBounds(errors.PhaseLoad, path, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
