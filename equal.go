package flashstring

import "bytes"

// compareChunk bounds the stack buffer used by the comparisons below.
const compareChunk = 64

// Equal reports whether a and b hold the same bytes.
func Equal(a, b *Handle) bool {
	n := a.Len()
	if n != b.Len() {
		return false
	}
	if a.resolve() == b.resolve() {
		return true
	}
	var ba, bb [compareChunk]byte
	for off := 0; off < n; off += compareChunk {
		ka := a.Read(off, ba[:])
		kb := b.Read(off, bb[:])
		if ka != kb || !bytes.Equal(ba[:ka], bb[:kb]) {
			return false
		}
	}
	return true
}

// EqualBytes reports whether h holds exactly p.
func (h *Handle) EqualBytes(p []byte) bool {
	if h.Len() != len(p) {
		return false
	}
	var buf [compareChunk]byte
	for off := 0; off < len(p); off += compareChunk {
		k := h.Read(off, buf[:])
		end := min(off+compareChunk, len(p))
		if !bytes.Equal(buf[:k], p[off:end]) {
			return false
		}
	}
	return true
}

// EqualString reports whether h holds exactly the bytes of s.
func (h *Handle) EqualString(s string) bool {
	if h.Len() != len(s) {
		return false
	}
	var buf [compareChunk]byte
	for off := 0; off < len(s); off += compareChunk {
		k := h.Read(off, buf[:])
		end := min(off+compareChunk, len(s))
		if string(buf[:k]) != s[off:end] {
			return false
		}
	}
	return true
}
