// Package arena implements a reserve/commit bump allocator together with a
// small allocator vtable that lets callers swap an arena for the platform
// heap without changing call sites, and a scope type for stack-discipline
// sub-allocations.
//
// The arena reserves a large virtual address range up front and commits
// physical backing in steps as allocations grow the used watermark. Memory
// is returned to the OS only at Destroy; individual allocations are never
// freed.
package arena

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vkforge/corepool/memtag"
)

// Flags configure arena behavior at creation time.
type Flags uint32

const (
	// LargePages requests that the commit step grow in multiples of the
	// large/huge page size instead of the regular OS page size.
	LargePages Flags = 1 << iota
)

// ErrOutOfReserve is returned (wrapped) when an allocation would grow the
// arena past its reserved bound.
var ErrOutOfReserve = errors.New("arena: allocation exceeds reserved region")

// ErrInvalidScope describes a scope that does not nest strictly within its
// arena's current state. No function in this package returns it; EndScope
// does not check nesting.
var ErrInvalidScope = errors.New("arena: scope does not nest strictly")

const defaultCommitStep = 64 * 1024 // 64 KiB, a typical OS page-group step

// Arena is a bump allocator over a reserved virtual region. It tracks three
// watermarks: reserved (the full virtual range), committed (the physically
// backed prefix), and used (the bump pointer). The invariant
// 0 <= used <= committed <= reserved holds after every operation.
type Arena struct {
	mu sync.Mutex

	reserved   uintptr
	committed  uintptr
	used       uintptr
	commitStep uintptr
	flags      Flags

	backing region
}

// region abstracts the platform-specific virtual memory operations so that
// Arena itself stays platform-independent. Implementations live in
// arena_unix.go (mmap/mprotect) and arena_fallback.go (plain slice).
type region interface {
	// bytes returns a slice whose length is the currently committed size
	// and whose capacity is at least that size. The slice is stable across
	// calls except immediately after grow.
	bytes() []byte
	// grow extends the committed size to at least newCommitted, which must
	// be <= reserved. Returns an error if the platform call fails.
	grow(newCommitted uintptr) error
	// destroy releases the backing memory to the OS.
	destroy() error
}

// Create reserves a virtual region of reserveSize bytes and commits an
// initial commitSize bytes of it. commitSize is rounded up to the commit
// step implied by flags. Returns an error if the platform cannot reserve
// the requested range.
func Create(reserveSize, commitSize uintptr, flags Flags) (*Arena, error) {
	if reserveSize == 0 {
		return nil, fmt.Errorf("arena: reserve size must be > 0")
	}
	if commitSize > reserveSize {
		commitSize = reserveSize
	}

	step := uintptr(defaultCommitStep)
	if flags&LargePages != 0 {
		step = largePageSize()
	}

	backing, err := newRegion(reserveSize)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %w", reserveSize, err)
	}

	a := &Arena{
		reserved:   reserveSize,
		commitStep: step,
		flags:      flags,
		backing:    backing,
	}

	if commitSize > 0 {
		if err := a.growCommitted(commitSize); err != nil {
			_ = backing.destroy()
			return nil, err
		}
	}

	return a, nil
}

// naturalAlignment returns the alignment that alloc() rounds requests up
// to: the smallest power of two >= size, clamped to the range [8, 64].
func naturalAlignment(size uintptr) uintptr {
	align := uintptr(8)
	for align < size && align < 64 {
		align <<= 1
	}
	return align
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

// Alloc reserves size bytes from the arena, growing the committed region if
// necessary. tag is used only for accounting. Returns nil if the arena is
// exhausted (used+size would cross reserved) or size is 0.
func (a *Arena) Alloc(size uintptr, tag memtag.Tag, counters *memtag.Counters) []byte {
	if size == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	align := naturalAlignment(size)
	start := alignUp(a.used, align)
	end := start + size

	if end > a.reserved {
		return nil
	}

	if end > a.committed {
		if err := a.growCommitted(end); err != nil {
			return nil
		}
	}

	buf := a.backing.bytes()
	a.used = end
	if counters != nil {
		counters.Report(size, tag, true)
	}
	return buf[start:end:end]
}

// growCommitted extends the committed watermark to at least newCommitted,
// rounding up to whole commit steps. Must be called with a.mu held.
func (a *Arena) growCommitted(newCommitted uintptr) error {
	if newCommitted <= a.committed {
		return nil
	}
	if newCommitted > a.reserved {
		return ErrOutOfReserve
	}

	target := alignUp(newCommitted, a.commitStep)
	if target > a.reserved {
		target = a.reserved
	}

	if err := a.backing.grow(target); err != nil {
		return fmt.Errorf("arena: grow commit to %d: %w", target, err)
	}
	a.committed = target
	return nil
}

// Pos returns the current used watermark. Combined with ResetTo, this is
// the low-level primitive scopes are built on.
func (a *Arena) Pos() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// ResetTo truncates the used watermark back to pos. pos must have been
// returned by an earlier Pos() call on this same arena and must not exceed
// the current used watermark.
func (a *Arena) ResetTo(pos uintptr, tag memtag.Tag, counters *memtag.Counters) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pos > a.used {
		return
	}
	if counters != nil {
		counters.Report(a.used-pos, tag, false)
	}
	a.used = pos
}

// Reserved returns the reserved virtual region size.
func (a *Arena) Reserved() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reserved
}

// Committed returns the committed physical backing size.
func (a *Arena) Committed() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.committed
}

// Destroy releases the arena's reserved region back to the OS. The arena
// must not be used afterward.
func (a *Arena) Destroy() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.backing.destroy()
}
