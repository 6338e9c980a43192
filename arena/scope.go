package arena

import "github.com/vkforge/corepool/memtag"

// Scope is a snapshot of an arena-backed allocator's used watermark, taken
// by BeginScope. EndScope truncates the arena back to that watermark.
// Scopes must nest strictly: ending scope B before an inner scope A (taken
// after B) leaves the arena in an inconsistent high-water state, so callers
// must always end scopes in the reverse order they were begun.
//
// A Scope taken over a non-arena allocator is not valid (IsValid reports
// false); callers must fall back to explicit Free calls in that case.
type Scope struct {
	allocator Allocator
	usedAtEntry uintptr
	valid       bool
}

// BeginScope captures the allocator's current arena watermark. For a
// platform-heap allocator the returned Scope is marked invalid; EndScope on
// it is a safe no-op.
func BeginScope(a Allocator) Scope {
	if a.kind != KindArena || a.arena == nil {
		return Scope{allocator: a, valid: false}
	}
	return Scope{
		allocator:   a,
		usedAtEntry: a.arena.Pos(),
		valid:       true,
	}
}

// IsValid reports whether this scope can actually truncate an arena.
func (s Scope) IsValid() bool {
	return s.valid
}

// EndScope truncates the arena to the watermark captured by BeginScope.
// Calling EndScope on an invalid scope (platform-heap allocator) is a
// no-op; callers of such allocators are responsible for their own Free
// calls instead.
func EndScope(s Scope, tag memtag.Tag) {
	if !s.valid {
		return
	}
	s.allocator.arena.ResetTo(s.usedAtEntry, tag, s.allocator.counters)
}
