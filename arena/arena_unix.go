//go:build unix

package arena

import (
	"golang.org/x/sys/unix"
)

// unixRegion backs an Arena with a single mmap'd PROT_NONE reservation that
// is incrementally mprotect'd to PROT_READ|PROT_WRITE as the committed
// watermark grows. This mirrors how real engines (and the teacher's own
// low-level backend packages) reserve address space up front and commit
// physical pages lazily.
type unixRegion struct {
	mem       []byte // full reserved mapping, length == reserved size
	committed uintptr
}

func newRegion(reserveSize uintptr) (region, error) {
	mem, err := unix.Mmap(-1, 0, int(reserveSize), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &unixRegion{mem: mem}, nil
}

func (r *unixRegion) bytes() []byte {
	return r.mem[:r.committed]
}

func (r *unixRegion) grow(newCommitted uintptr) error {
	if newCommitted <= r.committed {
		return nil
	}
	if err := unix.Mprotect(r.mem[:newCommitted], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return err
	}
	r.committed = newCommitted
	return nil
}

func (r *unixRegion) destroy() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}

// largePageSize returns the huge-page-aligned commit step used when the
// LargePages flag is set. 2 MiB matches the typical x86-64 huge page size;
// platforms without huge page support still benefit from fewer, larger
// mprotect calls.
func largePageSize() uintptr {
	return 2 * 1024 * 1024
}
