package freelist

import "testing"

// TestCoalescing is scenario S3 from spec.md.
func TestCoalescing(t *testing.T) {
	f := New(1024)

	off0, ok := f.Allocate(256)
	if !ok || off0 != 0 {
		t.Fatalf("allocate #1 = (%d, %v), want (0, true)", off0, ok)
	}
	off1, ok := f.Allocate(256)
	if !ok || off1 != 256 {
		t.Fatalf("allocate #2 = (%d, %v), want (256, true)", off1, ok)
	}
	off2, ok := f.Allocate(256)
	if !ok || off2 != 512 {
		t.Fatalf("allocate #3 = (%d, %v), want (512, true)", off2, ok)
	}

	if err := f.Free(256, off1); err != nil {
		t.Fatal(err)
	}
	if err := f.Free(256, off0); err != nil {
		t.Fatal(err)
	}
	if err := f.Free(256, off2); err != nil {
		t.Fatal(err)
	}

	if got := f.FreeBytes(); got != 1024 {
		t.Fatalf("FreeBytes() = %d, want 1024", got)
	}
	if len(f.runs) != 1 || f.runs[0].offset != 0 || f.runs[0].size != 1024 {
		t.Fatalf("runs = %+v, want single run {0,1024}", f.runs)
	}

	off, ok := f.Allocate(1024)
	if !ok || off != 0 {
		t.Fatalf("final allocate(1024) = (%d, %v), want (0, true)", off, ok)
	}
}

func TestAllocateFreeRoundTripIsIdentity(t *testing.T) {
	f := New(4096)
	before := snapshot(f)

	off, ok := f.Allocate(128)
	if !ok {
		t.Fatal("allocate failed")
	}
	if err := f.Free(128, off); err != nil {
		t.Fatal(err)
	}

	after := snapshot(f)
	if !runsEqual(before, after) {
		t.Fatalf("round trip changed state: before=%v after=%v", before, after)
	}
}

func TestAllocateExactEndSplicesRun(t *testing.T) {
	f := New(512)
	// Shrink the only run from the front so an exact match at the end is
	// possible: allocate the first 256 bytes, leaving a 256-byte tail run.
	if _, ok := f.Allocate(256); !ok {
		t.Fatal("setup allocate failed")
	}

	off, ok := f.Allocate(256) // exactly matches the remaining run
	if !ok || off != 256 {
		t.Fatalf("allocate exact-end = (%d, %v), want (256, true)", off, ok)
	}
	if len(f.runs) != 0 {
		t.Fatalf("runs = %+v, want empty (fully allocated)", f.runs)
	}
}

func TestAllocateFailsWhenNoRunLargeEnough(t *testing.T) {
	f := New(128)
	if _, ok := f.Allocate(256); ok {
		t.Fatal("expected allocate to fail: no run large enough")
	}
}

func TestFreeSumInvariant(t *testing.T) {
	f := New(1000)
	var allocated []struct{ off, size uint64 }

	sizes := []uint64{100, 200, 50, 300}
	for _, s := range sizes {
		off, ok := f.Allocate(s)
		if !ok {
			t.Fatalf("allocate(%d) failed", s)
		}
		allocated = append(allocated, struct{ off, size uint64 }{off, s})
	}

	var outstanding uint64
	for _, a := range allocated {
		outstanding += a.size
	}
	if f.FreeBytes()+outstanding != f.TotalSize() {
		t.Fatalf("free(%d) + outstanding(%d) != total(%d)", f.FreeBytes(), outstanding, f.TotalSize())
	}

	for _, a := range allocated {
		if err := f.Free(a.size, a.off); err != nil {
			t.Fatal(err)
		}
	}
	if f.FreeBytes() != f.TotalSize() {
		t.Fatalf("after freeing everything, FreeBytes() = %d, want %d", f.FreeBytes(), f.TotalSize())
	}
}

func snapshot(f *Freelist) []run {
	out := make([]run, len(f.runs))
	copy(out, f.runs)
	return out
}

func runsEqual(a, b []run) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
