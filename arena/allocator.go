package arena

import (
	"fmt"

	"github.com/vkforge/corepool/memtag"
)

// Kind discriminates the backing store an Allocator wraps.
type Kind int

const (
	// KindArena backs the allocator with a bump Arena. Free is a no-op.
	KindArena Kind = iota
	// KindPlatformHeap backs the allocator with ordinary Go heap
	// allocations, so individual blocks really are released on Free.
	KindPlatformHeap
)

func (k Kind) String() string {
	if k == KindArena {
		return "ARENA"
	}
	return "PLATFORM_HEAP"
}

// Allocator is a uniform alloc/free/realloc/report vtable over either an
// Arena or the platform heap. It is a small value type safe to copy and
// pass by value; every copy shares the same underlying Arena (if any) and
// the same Counters, matching the teacher's convention of cheap,
// copy-by-value handle types (core/id.go's ID[T]).
type Allocator struct {
	kind     Kind
	arena    *Arena
	counters *memtag.Counters
}

// NewArenaAllocator wraps arena as an Allocator. counters may be nil, in
// which case a fresh private Counters is created for it.
func NewArenaAllocator(a *Arena, counters *memtag.Counters) Allocator {
	if counters == nil {
		counters = memtag.NewCounters()
	}
	return Allocator{kind: KindArena, arena: a, counters: counters}
}

// NewPlatformHeapAllocator returns an Allocator backed by the Go heap.
func NewPlatformHeapAllocator(counters *memtag.Counters) Allocator {
	if counters == nil {
		counters = memtag.NewCounters()
	}
	return Allocator{kind: KindPlatformHeap, counters: counters}
}

// Kind returns which backing store this allocator wraps.
func (a Allocator) Kind() Kind { return a.kind }

// Counters returns the shared statistics counters for this allocator.
func (a Allocator) Counters() *memtag.Counters { return a.counters }

// Alloc returns a block of at least size bytes tagged for accounting, or
// nil if the allocation cannot be satisfied (arena exhaustion). size == 0
// always returns nil without touching any counter.
func (a Allocator) Alloc(size uintptr, tag memtag.Tag) []byte {
	if size == 0 {
		return nil
	}
	switch a.kind {
	case KindArena:
		return a.arena.Alloc(size, tag, a.counters)
	default:
		buf := make([]byte, size)
		a.counters.Report(size, tag, true)
		return buf
	}
}

// Free releases buf, previously returned by Alloc with the same tag. On an
// arena-backed allocator this is a safe no-op, per spec: arena memory is
// only reclaimed in bulk at scope end or arena Destroy.
func (a Allocator) Free(buf []byte, tag memtag.Tag) {
	if len(buf) == 0 {
		return
	}
	if a.kind == KindArena {
		return
	}
	a.counters.Report(uintptr(len(buf)), tag, false)
}

// Realloc resizes buf to newSize. If buf is non-nil and newSize <=
// len(buf), buf[:newSize] is returned (shrinking in place, same backing
// array). Otherwise a new
// block is allocated, min(len(buf), newSize) bytes are copied in, and the
// new block is returned; the old block is not freed on an arena-backed
// allocator (it has no individual lifetime).
func (a Allocator) Realloc(buf []byte, newSize uintptr, tag memtag.Tag) []byte {
	if buf != nil && newSize <= uintptr(len(buf)) {
		return buf[:newSize]
	}

	next := a.Alloc(newSize, tag)
	if next == nil {
		return nil
	}
	n := copy(next, buf)
	_ = n

	if a.kind == KindPlatformHeap {
		a.Free(buf, tag)
	}
	return next
}

// Report is the out-of-band statistics hook used by GPU memory accounting
// paths that allocate outside of Alloc/Free (e.g. backend-reported device
// memory).
func (a Allocator) Report(size uintptr, tag memtag.Tag, isAlloc bool) {
	a.counters.Report(size, tag, isAlloc)
}

// String implements fmt.Stringer for diagnostics.
func (a Allocator) String() string {
	return fmt.Sprintf("Allocator{kind:%s}", a.kind)
}
