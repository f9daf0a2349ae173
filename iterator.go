package flashstring

// Iterator is a position in an Array. Two iterators are equal when they refer
// to the same array and position, so the usual loop is
//
//	for it := a.Begin(); it != a.End(); it = it.Next() {}
type Iterator[T Element] struct {
	arr *Array[T]
	pos int
}

// Value returns the element at the iterator position.
func (it Iterator[T]) Value() T {
	if it.arr == nil {
		var zero T
		return zero
	}
	return it.arr.ValueAt(it.pos)
}

// Next returns the iterator advanced by one element.
func (it Iterator[T]) Next() Iterator[T] {
	it.pos++
	return it
}

// Pos returns the element index.
func (it Iterator[T]) Pos() int {
	return it.pos
}
