// Package binary writes the WebAssembly binary encoding used for image modules.
package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates an encoded module or section body.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b ...byte) {
	w.buf.Write(b)
}

// Raw writes data unchanged.
func (w *Writer) Raw(data []byte) {
	w.buf.Write(data)
}

// U32 writes an unsigned LEB128 value.
func (w *Writer) U32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			w.buf.WriteByte(b)
			return
		}
		w.buf.WriteByte(b | 0x80)
	}
}

// S32 writes a signed LEB128 value.
func (w *Writer) S32(v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.buf.WriteByte(b)
			return
		}
		w.buf.WriteByte(b | 0x80)
	}
}

// Name writes a length-prefixed UTF-8 name.
func (w *Writer) Name(s string) {
	w.U32(uint32(len(s)))
	w.buf.WriteString(s)
}

// Blob writes a length-prefixed byte vector.
func (w *Writer) Blob(data []byte) {
	w.U32(uint32(len(data)))
	w.buf.Write(data)
}

// U32LE writes a fixed 4-byte little-endian value.
func (w *Writer) U32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// Section writes a section with the given id whose body is produced by fn.
func (w *Writer) Section(id byte, fn func(body *Writer)) {
	body := NewWriter()
	fn(body)
	w.buf.WriteByte(id)
	w.U32(uint32(body.Len()))
	w.buf.Write(body.Bytes())
}
