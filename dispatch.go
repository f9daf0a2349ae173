package flashstring

import (
	"encoding/binary"
	"unsafe"
)

// Element is the set of element types an Array can hold. Every member is 1, 2,
// 4 or 8 bytes wide; other widths do not satisfy the constraint.
type Element interface {
	~int8 | ~uint8 |
		~int16 | ~uint16 |
		~int32 | ~uint32 | ~float32 |
		~int64 | ~uint64 | ~float64
}

// loader reads one element, either through a region's Memory or from bytes
// already copied out of it. The strategy is fixed when an Array is created.
type loader[T Element] struct {
	load   func(m Memory, addr uint32) T
	decode func(b []byte) T
	size   int
}

func loaderFor[T Element]() loader[T] {
	var zero T
	switch size := int(unsafe.Sizeof(zero)); size {
	case 1:
		return loader[T]{load: loadByte[T], decode: decodeByte[T], size: size}
	case 2:
		return loader[T]{load: loadHalfWord[T], decode: decodeHalfWord[T], size: size}
	case 4:
		return loader[T]{load: loadWord[T], decode: decodeWord[T], size: size}
	default:
		return loader[T]{load: loadDoubleWord[T], decode: decodeDoubleWord[T], size: size}
	}
}

// Values are reinterpreted, not converted, so float elements keep their bits.

func loadByte[T Element](m Memory, addr uint32) T {
	v, _ := m.ReadByte(addr)
	return *(*T)(unsafe.Pointer(&v))
}

func loadHalfWord[T Element](m Memory, addr uint32) T {
	v, _ := m.ReadUint16Le(addr)
	return *(*T)(unsafe.Pointer(&v))
}

func loadWord[T Element](m Memory, addr uint32) T {
	v, _ := m.ReadUint32Le(addr)
	return *(*T)(unsafe.Pointer(&v))
}

func loadDoubleWord[T Element](m Memory, addr uint32) T {
	v, _ := m.ReadUint64Le(addr)
	return *(*T)(unsafe.Pointer(&v))
}

func decodeByte[T Element](b []byte) T {
	v := b[0]
	return *(*T)(unsafe.Pointer(&v))
}

func decodeHalfWord[T Element](b []byte) T {
	v := binary.LittleEndian.Uint16(b)
	return *(*T)(unsafe.Pointer(&v))
}

func decodeWord[T Element](b []byte) T {
	v := binary.LittleEndian.Uint32(b)
	return *(*T)(unsafe.Pointer(&v))
}

func decodeDoubleWord[T Element](b []byte) T {
	v := binary.LittleEndian.Uint64(b)
	return *(*T)(unsafe.Pointer(&v))
}
