package ringbuffer

import (
	"bytes"
	"testing"

	"github.com/vkforge/corepool/arena"
)

func newTestAllocator(t *testing.T) arena.Allocator {
	t.Helper()
	return arena.NewPlatformHeapAllocator(nil)
}

func TestZeroSizeAllocSucceedsAndChangesNothing(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 64)
	if err != nil {
		t.Fatal(err)
	}

	payload, ok := buf.Alloc(0)
	if !ok || payload != nil {
		t.Fatalf("Alloc(0) = (%v, %v), want (nil, true)", payload, ok)
	}
	if buf.Fill() != 0 {
		t.Fatalf("Fill() = %d, want 0", buf.Fill())
	}
}

func TestAllocFreeRoundTrip(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 64)
	if err != nil {
		t.Fatal(err)
	}

	payload, ok := buf.Alloc(3)
	if !ok {
		t.Fatal("Alloc(3) failed")
	}
	copy(payload, []byte("hi!"))

	if buf.Fill() != 11 {
		t.Fatalf("Fill() = %d, want 11 (8 header + 3 payload)", buf.Fill())
	}

	buf.Free(3)
	if buf.Fill() != 0 {
		t.Fatalf("Fill() after Free = %d, want 0", buf.Fill())
	}
}

func TestAllocRollbackRestoresStateBitForBit(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 64)
	if err != nil {
		t.Fatal(err)
	}

	// Establish some prior state so the rollback isn't trivially starting
	// from zero.
	p1, ok := buf.Alloc(4)
	if !ok {
		t.Fatal("setup alloc failed")
	}
	copy(p1, []byte("abcd"))

	before := *buf

	p2, ok := buf.Alloc(16)
	if !ok {
		t.Fatal("Alloc(16) failed")
	}
	copy(p2, bytes.Repeat([]byte{0xAA}, 16))

	buf.RollbackLastAlloc()

	after := *buf
	if after.head != before.head || after.tail != before.tail || after.fill != before.fill {
		t.Fatalf("state not restored: before=%+v after=%+v", before, after)
	}
}

func TestRollbackAcrossWrapRestoresStateBitForBit(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 32)
	if err != nil {
		t.Fatal(err)
	}

	// Fill up close to the end, then drain the head so there's room at the
	// front but not a contiguous run at the tail, forcing the next alloc to
	// wrap.
	if _, ok := buf.Alloc(8); !ok { // uses 16 bytes (8 hdr + 8 payload), tail=16
		t.Fatal("alloc 1 failed")
	}
	if _, ok := buf.Alloc(4); !ok { // uses 12 bytes (8 hdr + 4 payload), tail=28
		t.Fatal("alloc 2 failed")
	}
	buf.Free(8) // drain the first block, head=16

	before := *buf

	// tail=28, capacity=32: an 8-byte payload needs 16 bytes, which
	// doesn't fit in the 4 bytes left before capacity but exactly fits
	// the free room between 0 and head (16), so it wraps to offset 0.
	payload, ok := buf.Alloc(8)
	if !ok {
		t.Fatal("wrapping alloc failed")
	}
	_ = payload

	buf.RollbackLastAlloc()

	after := *buf
	if after.tail != before.tail || after.fill != before.fill || after.head != before.head {
		t.Fatalf("wrap rollback mismatch: before=%+v after=%+v", before, after)
	}
}

// TestAllocAcrossWrapDrainsInFIFOOrderWithoutCorruption exercises a wrap
// followed by genuine FIFO drains (no rollback), the exact sequence a
// long-running events.Manager drives once its data buffer wraps while
// older events are still queued. Before the dead-zone accounting fix,
// the second Free below would leave head stranded inside the unused gap
// at the end of the buffer, and the following Free would read garbage as
// a header.
func TestAllocAcrossWrapDrainsInFIFOOrderWithoutCorruption(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 40)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := buf.Alloc(8); !ok { // block A: 16 bytes, tail 0->16
		t.Fatal("alloc A failed")
	}
	if _, ok := buf.Alloc(8); !ok { // block B: 16 bytes, tail 16->32
		t.Fatal("alloc B failed")
	}
	buf.Free(8) // drain block A, head 0->16

	// tail=32, capacity=40: a payload of 4 needs 12 bytes, which doesn't
	// fit in the remaining 8 bytes before capacity but does fit before
	// head (12 <= 16), so this wraps to offset 0 and strands 8 dead bytes
	// at [32, 40).
	payload, ok := buf.Alloc(4)
	if !ok {
		t.Fatal("wrapping alloc C failed")
	}
	copy(payload, []byte{1, 2, 3, 4})

	if buf.Fill() != 36 {
		t.Fatalf("Fill() after wrap = %d, want 36 (16 live B + 12 live C + 8 dead zone)", buf.Fill())
	}

	// Drain block B. This must cross the wrap boundary and land head at
	// 0, not at the stale arithmetic position 32 inside the dead zone.
	buf.Free(8)
	if buf.head != 0 {
		t.Fatalf("head after draining across the wrap = %d, want 0", buf.head)
	}

	// Drain the wrapped block C. Before the fix, head would still be
	// sitting at 32 here and this would read the dead zone's garbage as
	// a header, panicking with a spurious *CorruptionError.
	buf.Free(4)

	if buf.Fill() != 0 {
		t.Fatalf("Fill() after draining every block = %d, want 0", buf.Fill())
	}
}

func TestFreeHeaderMismatchPanics(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 64)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := buf.Alloc(4); !ok {
		t.Fatal("alloc failed")
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on header mismatch")
		}
		if _, ok := r.(*CorruptionError); !ok {
			t.Fatalf("expected *CorruptionError, got %T", r)
		}
	}()

	buf.Free(999) // wrong size
}

func TestCanAllocMatchesAllocOutcome(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 32)
	if err != nil {
		t.Fatal(err)
	}

	if !buf.CanAlloc(8) {
		t.Fatal("CanAlloc(8) should be true on a fresh 32-byte buffer")
	}
	if buf.CanAlloc(64) {
		t.Fatal("CanAlloc(64) should be false, exceeds capacity")
	}
}

func TestFillNeverExceedsCapacity(t *testing.T) {
	buf, err := Create(newTestAllocator(t), 32)
	if err != nil {
		t.Fatal(err)
	}

	count := 0
	for buf.CanAlloc(4) {
		if _, ok := buf.Alloc(4); !ok {
			break
		}
		count++
	}
	if buf.Fill() > buf.Capacity() {
		t.Fatalf("Fill() = %d exceeds Capacity() = %d", buf.Fill(), buf.Capacity())
	}
	if count == 0 {
		t.Fatal("expected at least one allocation to succeed")
	}
}
