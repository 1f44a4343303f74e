package scene

// Disposable is a resource that must be released explicitly. The underlying
// driver leaks buffer memory if a resource merely becomes unreachable.
type Disposable interface {
	Dispose()
}

// ResourceSet tracks every resource a variant allocates so cleanup can
// release all of them depth-first, including assets loaded mid-init.
type ResourceSet struct {
	resources []Disposable
}

// NewResourceSet returns an empty tracker.
func NewResourceSet() *ResourceSet {
	return &ResourceSet{}
}

// Track registers a resource for release.
func (rs *ResourceSet) Track(d Disposable) {
	rs.resources = append(rs.resources, d)
}

// ReleaseAll disposes every tracked resource in reverse registration order
// and empties the set. Safe to call repeatedly.
func (rs *ResourceSet) ReleaseAll() {
	for i := len(rs.resources) - 1; i >= 0; i-- {
		rs.resources[i].Dispose()
	}
	rs.resources = rs.resources[:0]
}

// Len reports the number of currently tracked resources.
func (rs *ResourceSet) Len() int {
	return len(rs.resources)
}

// Buffer is a simulation state buffer tracked as a disposable resource.
// Dispose drops the backing storage so a leak shows up as a non-empty set.
type Buffer[T any] struct {
	Data []T
}

// NewBuffer allocates a buffer of n elements and tracks it in rs.
func NewBuffer[T any](rs *ResourceSet, n int) *Buffer[T] {
	b := &Buffer[T]{Data: make([]T, n)}
	rs.Track(b)
	return b
}

// Resize grows or shrinks the buffer to n elements, preserving the prefix.
func (b *Buffer[T]) Resize(n int) {
	if n <= cap(b.Data) {
		b.Data = b.Data[:n]
		return
	}
	grown := make([]T, n)
	copy(grown, b.Data)
	b.Data = grown
}

// Dispose releases the backing storage.
func (b *Buffer[T]) Dispose() {
	b.Data = nil
}
