package flashstring

import (
	"io"

	"github.com/wippyai/flashstring/errors"
)

// writeChunk bounds the stack buffer used by WriteTo.
const writeChunk = 512

// Reader streams a handle's data. It is not safe for concurrent use; the
// handle itself is.
type Reader struct {
	h     *Handle
	pos   int64
	flash bool
}

// NewReader returns a Reader over h. With flashRead set, data is copied
// through the device backend instead of the cache.
func NewReader(h *Handle, flashRead bool) *Reader {
	if h == nil {
		h = Empty()
	}
	return &Reader{h: h, flash: flashRead}
}

func (r *Reader) readAt(off int64, p []byte) int {
	if off > int64(MaxLength) {
		return 0
	}
	if r.flash {
		return r.h.ReadFlash(int(off), p)
	}
	return r.h.Read(int(off), p)
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	n := int64(r.h.Len()) - r.pos
	if n < 0 {
		return 0
	}
	return int(n)
}

// Finished reports whether all data has been read.
func (r *Reader) Finished() bool {
	return r.pos >= int64(r.h.Len())
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.Finished() {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := r.readAt(r.pos, p)
	r.pos += int64(n)
	if n == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	return n, nil
}

// ReadAt implements io.ReaderAt.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.OutOfBounds(errors.PhaseRead, nil, int(off), r.h.Len())
	}
	n := r.readAt(off, p)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker. Positions outside [0, Len] are rejected.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = int64(r.h.Len()) + offset
	default:
		return r.pos, errors.InvalidInput(errors.PhaseRead, "invalid whence")
	}
	if abs < 0 || abs > int64(r.h.Len()) {
		return r.pos, errors.OutOfBounds(errors.PhaseRead, nil, int(abs), r.h.Len())
	}
	r.pos = abs
	return abs, nil
}

// WriteTo implements io.WriterTo.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var buf [writeChunk]byte
	var total int64
	for !r.Finished() {
		n := r.readAt(r.pos, buf[:])
		if n == 0 {
			return total, io.ErrUnexpectedEOF
		}
		m, err := w.Write(buf[:n])
		total += int64(m)
		r.pos += int64(m)
		if err != nil {
			return total, err
		}
		if m < n {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}
