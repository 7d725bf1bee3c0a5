package sim

import log "github.com/sirupsen/logrus"

// Hook positions of a Buffer. Item is the element.
var (
	HookPosBufPush = &HookPos{Name: "BufPush"}
	HookPosBufPop  = &HookPos{Name: "BufPop"}
)

// A Buffer is a bounded FIFO queue.
type Buffer[T any] struct {
	HookableBase

	name     string
	capacity int
	elements []T
}

// NewBuffer creates an empty buffer.
func NewBuffer[T any](name string, capacity int) *Buffer[T] {
	if capacity <= 0 {
		log.Panicf("buffer %s must have a positive capacity", name)
	}

	return &Buffer[T]{name: name, capacity: capacity}
}

// Name returns the name of the buffer.
func (b *Buffer[T]) Name() string {
	return b.name
}

// CanPush tells whether the buffer has room for one more element.
func (b *Buffer[T]) CanPush() bool {
	return len(b.elements) < b.capacity
}

// Push appends an element. It panics when the buffer is full.
func (b *Buffer[T]) Push(e T) {
	if !b.CanPush() {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.elements = append(b.elements, e)

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{Domain: b, Pos: HookPosBufPush, Item: e})
	}
}

// Pop removes and returns the oldest element.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	if len(b.elements) == 0 {
		return zero, false
	}

	e := b.elements[0]
	b.elements[0] = zero
	b.elements = b.elements[1:]

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{Domain: b, Pos: HookPosBufPop, Item: e})
	}

	return e, true
}

// Peek returns the oldest element without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	if len(b.elements) == 0 {
		var zero T
		return zero, false
	}

	return b.elements[0], true
}

// Capacity returns the maximum number of elements.
func (b *Buffer[T]) Capacity() int {
	return b.capacity
}

// Size returns the number of buffered elements.
func (b *Buffer[T]) Size() int {
	return len(b.elements)
}

// Clear drops every element.
func (b *Buffer[T]) Clear() {
	b.elements = nil
}
