package flashstring

import (
	"iter"
	"reflect"
	"sync"
)

// readChunk bounds the stack buffer used for bulk typed reads.
const readChunk = 256

// Array is a read-only view of a handle as a sequence of fixed-size elements.
// A trailing partial element is ignored.
type Array[T Element] struct {
	h  *Handle
	ld loader[T]
}

// NewArray views h as an array of T. A nil handle is treated as empty.
func NewArray[T Element](h *Handle) *Array[T] {
	if h == nil {
		h = Empty()
	}
	return &Array[T]{h: h, ld: loaderFor[T]()}
}

var emptyArrays sync.Map // reflect.Type -> *Array[T]

// EmptyArray returns the canonical zero-length array of T.
func EmptyArray[T Element]() *Array[T] {
	key := reflect.TypeFor[T]()
	if a, ok := emptyArrays.Load(key); ok {
		return a.(*Array[T])
	}
	a, _ := emptyArrays.LoadOrStore(key, NewArray[T](Empty()))
	return a.(*Array[T])
}

// Handle returns the underlying handle.
func (a *Array[T]) Handle() *Handle {
	return a.h
}

// Len returns the number of elements.
func (a *Array[T]) Len() int {
	return a.h.Len() / a.ld.size
}

// ElementSize returns the size of one element in bytes.
func (a *Array[T]) ElementSize() int {
	return a.ld.size
}

// Data returns the address of the first element.
func (a *Array[T]) Data() uint32 {
	return a.h.Data()
}

// ValueAt returns the element at index, or the zero value when index is out
// of range.
func (a *Array[T]) ValueAt(index int) T {
	d := a.h.object()
	if index < 0 || index >= int(d.length)/a.ld.size {
		var zero T
		return zero
	}
	return a.ld.load(d.region.Mem, d.data()+uint32(index*a.ld.size))
}

// At is ValueAt.
func (a *Array[T]) At(index int) T {
	return a.ValueAt(index)
}

// IndexOf returns the index of the first element equal to value, or -1.
func (a *Array[T]) IndexOf(value T) int {
	d := a.h.object()
	n := int(d.length) / a.ld.size
	addr := d.data()
	for i := 0; i < n; i++ {
		if a.ld.load(d.region.Mem, addr) == value {
			return i
		}
		addr += uint32(a.ld.size)
	}
	return -1
}

// Read copies elements starting at index into buf through the cached backend
// and returns the number of elements copied.
func (a *Array[T]) Read(index int, buf []T) int {
	return a.read(index, buf, a.h.Read)
}

// ReadFlash is Read through the device backend.
func (a *Array[T]) ReadFlash(index int, buf []T) int {
	return a.read(index, buf, a.h.ReadFlash)
}

func (a *Array[T]) read(index int, buf []T, readBytes func(int, []byte) int) int {
	if index < 0 || index >= a.Len() {
		return 0
	}
	size := a.ld.size
	per := readChunk / size
	var chunk [readChunk]byte
	total := 0
	for total < len(buf) {
		want := min(len(buf)-total, per)
		n := readBytes((index+total)*size, chunk[:want*size]) / size
		for i := 0; i < n; i++ {
			buf[total+i] = a.ld.decode(chunk[i*size:])
		}
		total += n
		if n < want {
			break
		}
	}
	return total
}

// Begin returns an iterator at the first element.
func (a *Array[T]) Begin() Iterator[T] {
	return Iterator[T]{arr: a}
}

// End returns the iterator one past the last element.
func (a *Array[T]) End() Iterator[T] {
	return Iterator[T]{arr: a, pos: a.Len()}
}

// All yields index/element pairs in order.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for it, end := a.Begin(), a.End(); it != end; it = it.Next() {
			if !yield(it.pos, it.Value()) {
				return
			}
		}
	}
}
