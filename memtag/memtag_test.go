package memtag

import "testing"

func TestReportTracksLiveBytesAndCounts(t *testing.T) {
	c := NewCounters()

	c.Report(128, GPU, true)
	c.Report(64, GPU, true)
	c.Report(64, GPU, false)

	got := c.Snapshot(GPU)
	want := Stats{LiveBytes: 128, TotalAllocs: 2, TotalFrees: 1}
	if got != want {
		t.Fatalf("Snapshot(GPU) = %+v, want %+v", got, want)
	}
}

func TestReportKeepsTagsIndependent(t *testing.T) {
	c := NewCounters()

	c.Report(32, Vector, true)
	c.Report(16, String, true)

	if got := c.Snapshot(Vector).LiveBytes; got != 32 {
		t.Fatalf("Vector live bytes = %d, want 32", got)
	}
	if got := c.Snapshot(String).LiveBytes; got != 16 {
		t.Fatalf("String live bytes = %d, want 16", got)
	}
}

func TestBucketForFallsBackToUnknownOnOutOfRangeTag(t *testing.T) {
	c := NewCounters()

	c.Report(8, Tag(999), true)

	if got := c.Snapshot(Unknown).LiveBytes; got != 8 {
		t.Fatalf("Unknown live bytes = %d, want 8 (out-of-range tag folds into Unknown)", got)
	}
}

func TestAllReturnsEveryKnownTag(t *testing.T) {
	c := NewCounters()
	all := c.All()

	for _, tag := range []Tag{Renderer, Vector, String, Array, Freelist, GPU, Vulkan, Struct, Unknown} {
		if _, ok := all[tag]; !ok {
			t.Fatalf("All() missing entry for tag %v", tag)
		}
	}
	if len(all) != 9 {
		t.Fatalf("All() len = %d, want 9", len(all))
	}
}

func TestTagStringNames(t *testing.T) {
	cases := map[Tag]string{
		Renderer: "RENDERER",
		GPU:      "GPU",
		Vulkan:   "VULKAN",
		Unknown:  "UNKNOWN",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Fatalf("%v.String() = %q, want %q", int(tag), got, want)
		}
	}
}
