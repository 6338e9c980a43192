// Package ringbuffer implements the typed, header-prefixed event-data
// buffer the event manager uses to stash payloads alongside the events that
// reference them.
//
// The buffer is a fixed-capacity ring of variable-length blocks. Each block
// is an 8-byte little-endian length header immediately followed by that
// many payload bytes; a block's header+payload always occupy one
// contiguous region (either tail-to-end-of-window, or wrapped to the very
// start of the buffer) and are never split across the wrap point.
//
// Buffer is NOT internally synchronized. Its sole intended concurrent user,
// the event manager, serializes all access under its own mutex.
package ringbuffer

import (
	"encoding/binary"
	"fmt"

	"github.com/vkforge/corepool/arena"
	"github.com/vkforge/corepool/memtag"
)

const headerSize = 8

// CorruptionError is panicked when Free observes a header that does not
// match the caller-supplied size, which spec.md treats as a programmer
// error indicating memory corruption rather than a recoverable failure.
type CorruptionError struct {
	Expected uint64
	Got      uint64
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("ringbuffer: header mismatch at head, expected %d got %d (buffer corrupted)", e.Expected, e.Got)
}

// Buffer is a fixed-capacity ring of length-prefixed byte blocks.
//
// When a block doesn't fit between tail and capacity but does fit between
// 0 and head, Alloc wraps: it places the new block at offset 0 and leaves
// a "dead zone" of unusable bytes between the old tail and capacity. That
// dead zone is not addressable by any block, so it is accounted for
// explicitly: wrapBoundary records where it starts (0 means no dead zone
// is currently pending) and deadZoneSize records its length. fill
// includes the dead zone's bytes for as long as it is pending, so
// capacity accounting (CanAlloc/Alloc's fill+need check) never
// overcounts free space by the size of a gap nothing can be placed in.
// Free detects head reaching wrapBoundary and jumps it to 0, reclaiming
// the dead zone at that point instead of trusting raw arithmetic on head,
// which would otherwise walk straight into the gap and read garbage as
// the next block's header.
type Buffer struct {
	data []byte

	capacity uint64
	head     uint64 // next byte to drain
	tail     uint64 // next byte to write
	fill     uint64 // bytes currently in use, including any pending dead zone

	wrapBoundary uint64 // 0 if no wrap is pending, else the offset where the dead zone starts
	deadZoneSize uint64 // bytes unusable in [wrapBoundary, wrapBoundary+deadZoneSize), only meaningful while wrapBoundary != 0

	lastBlockSize          uint64 // size of the most recent reservation, header included
	tailBeforeLast         uint64 // tail value immediately before the most recent Alloc, for exact rollback
	fillBeforeLast         uint64 // fill value immediately before the most recent Alloc
	wrapBoundaryBeforeLast uint64 // wrapBoundary value immediately before the most recent Alloc
	deadZoneSizeBeforeLast uint64 // deadZoneSize value immediately before the most recent Alloc
}

// Create allocates a capacity-byte backing buffer from alloc and returns a
// fresh, empty Buffer.
func Create(alloc arena.Allocator, capacity uint64) (*Buffer, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("ringbuffer: capacity must be > 0")
	}
	data := alloc.Alloc(uintptr(capacity), memtag.Renderer)
	if data == nil {
		return nil, fmt.Errorf("ringbuffer: failed to allocate %d-byte backing buffer", capacity)
	}
	return &Buffer{data: data, capacity: capacity}, nil
}

// Capacity returns the fixed buffer capacity.
func (b *Buffer) Capacity() uint64 { return b.capacity }

// Fill returns the number of bytes currently in use (including headers).
func (b *Buffer) Fill() uint64 { return b.fill }

// LastBlockSize returns the header+payload size of the most recent
// successful Alloc, or 0 if it has since been rolled back or drained, or
// none has occurred.
func (b *Buffer) LastBlockSize() uint64 { return b.lastBlockSize }

// CanAlloc reports whether a reservation of size payload bytes would
// currently succeed, without performing it.
func (b *Buffer) CanAlloc(size uint64) bool {
	if size == 0 {
		return true
	}
	need := headerSize + size
	if b.fill+need > b.capacity {
		return false
	}
	if b.tail+need <= b.capacity {
		return true
	}
	return need <= b.head
}

// Alloc reserves size payload bytes, writing the length-prefixed header and
// returning a slice over the payload region (valid until the block is
// freed or rolled back). size == 0 always succeeds, returns a nil payload,
// and touches no counters.
func (b *Buffer) Alloc(size uint64) (payload []byte, ok bool) {
	if size == 0 {
		return nil, true
	}

	need := headerSize + size
	if b.fill+need > b.capacity {
		return nil, false
	}

	var pos uint64
	wrapped := false
	if b.tail+need <= b.capacity {
		pos = b.tail
	} else {
		if need > b.head {
			return nil, false
		}
		pos = 0
		wrapped = true
	}

	binary.LittleEndian.PutUint64(b.data[pos:pos+headerSize], size)
	payload = b.data[pos+headerSize : pos+need]

	b.tailBeforeLast = b.tail
	b.fillBeforeLast = b.fill
	b.wrapBoundaryBeforeLast = b.wrapBoundary
	b.deadZoneSizeBeforeLast = b.deadZoneSize

	if wrapped {
		b.wrapBoundary = b.tail
		b.deadZoneSize = b.capacity - b.tail
		b.fill += b.deadZoneSize
	}

	b.tail = pos + need
	b.fill += need
	b.lastBlockSize = need

	return payload, true
}

// Free drains the oldest block, which must have the given payload size.
// Panics with *CorruptionError if the header at head does not match size,
// since that can only happen if the buffer's invariants were violated
// elsewhere.
func (b *Buffer) Free(size uint64) {
	if size == 0 {
		return
	}

	got := binary.LittleEndian.Uint64(b.data[b.head : b.head+headerSize])
	if got != size {
		panic(&CorruptionError{Expected: size, Got: got})
	}

	need := headerSize + size
	newHead := b.head + need
	b.fill -= need

	boundary := b.capacity
	if b.wrapBoundary != 0 {
		boundary = b.wrapBoundary
	}
	if newHead >= boundary {
		newHead = 0
		if b.wrapBoundary != 0 {
			b.fill -= b.deadZoneSize
			b.wrapBoundary = 0
			b.deadZoneSize = 0
		}
	}
	b.head = newHead

	if b.fill == 0 {
		b.head = 0
		b.tail = 0
		b.wrapBoundary = 0
		b.deadZoneSize = 0
		b.lastBlockSize = 0
	}
}

// RollbackLastAlloc undoes the most recent successful Alloc, restoring the
// buffer to exactly the state it was in beforehand. It is a no-op if no
// allocation is outstanding (lastBlockSize == 0), e.g. because it was
// already rolled back or drained.
func (b *Buffer) RollbackLastAlloc() {
	if b.lastBlockSize == 0 {
		return
	}

	b.tail = b.tailBeforeLast
	b.fill = b.fillBeforeLast
	b.wrapBoundary = b.wrapBoundaryBeforeLast
	b.deadZoneSize = b.deadZoneSizeBeforeLast
	b.lastBlockSize = 0
}

// Destroy releases the buffer's reference to its backing storage. The
// backing bytes themselves are owned by the allocator that produced them
// (e.g. reclaimed in bulk when an arena scope ends or the arena is
// destroyed).
func (b *Buffer) Destroy() {
	b.data = nil
	b.head, b.tail, b.fill, b.lastBlockSize = 0, 0, 0, 0
	b.wrapBoundary, b.deadZoneSize = 0, 0
}
