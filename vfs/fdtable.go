package vfs

import (
	"sync"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// fdTable is the process-wide mapping fd -> OpenFile, assigning dense
// non-negative integers from the lowest free slot, per spec.md §3.
type fdTable struct {
	mu    sync.Mutex
	slots []*OpenFile // nil entries are free slots
}

func newFDTable() *fdTable {
	return &fdTable{}
}

// add inserts file into the lowest free slot and returns its fd.
func (t *fdTable) add(file *OpenFile) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, slot := range t.slots {
		if slot == nil {
			t.slots[i] = file
			return int32(i)
		}
	}
	t.slots = append(t.slots, file)
	return int32(len(t.slots) - 1)
}

// get looks up the OpenFile for fd, failing EBADF if fd is out of range or
// its slot is free.
func (t *fdTable) get(fd int32) (*OpenFile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 0 || int(fd) >= len(t.slots) || t.slots[fd] == nil {
		return nil, vfserrors.New(vfserrors.EBADF, "").WithMessage("bad file descriptor")
	}
	return t.slots[fd], nil
}

// remove frees fd's slot. Removing an already-free or out-of-range fd is a
// no-op. VFS.Close, its only caller, looks fd up first, so a second Close
// of the same fd fails EBADF before reaching remove.
func (t *fdTable) remove(fd int32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd >= 0 && int(fd) < len(t.slots) {
		t.slots[fd] = nil
	}
}
