package ulib

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
)

// HeapAlign is the alignment of every heap block.
const HeapAlign mem.Size = 8

// Heap is the user memory allocator. Blocks are carved from a fixed arena
// and never freed; concurrent callers are serialized on the kernel heap
// semaphore.
type Heap struct {
	lock  *sem.ID
	arena *mem.StackAllocator
}

// NewHeap returns a heap over [base, base+size) whose lock lives in *lock.
// The lock is created by Init.
func NewHeap(lock *sem.ID, base mem.Addr, size mem.Size) *Heap {
	return &Heap{lock: lock, arena: mem.NewStackAllocator(base, size)}
}

// Init creates the heap semaphore. It runs once, from the main thread,
// before any other thread exists.
func (h *Heap) Init(th *machine.Thread) error {
	var s Sem
	if err := s.Init(th, false, 1); err != nil {
		return err
	}
	*h.lock = s.ID()
	return nil
}

// Lock acquires the heap lock.
func (h *Heap) Lock(th *machine.Thread) error {
	s := Sem{id: *h.lock}
	return s.Wait(th)
}

// Unlock releases the heap lock.
func (h *Heap) Unlock(th *machine.Thread) error {
	s := Sem{id: *h.lock}
	return s.Post(th)
}

// Alloc returns the address of a new block of at least size bytes. It fails
// with ENOMEM once the arena is exhausted, and with the post error when the
// heap lock cannot be released.
func (h *Heap) Alloc(th *machine.Thread, size mem.Size) (addr mem.Addr, err error) {
	if err = h.Lock(th); err != nil {
		return 0, err
	}
	defer func() {
		h.release(th, &err)
		if err != nil {
			addr = 0
		}
	}()

	size = mem.AlignSize(size, HeapAlign)
	top, aerr := h.arena.Alloc(size)
	if aerr != nil {
		return 0, kernel.ENOMEM
	}
	return top - mem.Addr(size), nil
}

// release drops the heap lock. A failed post is logged and stored in *err
// unless *err already holds an error.
func (h *Heap) release(th *machine.Thread, err *error) {
	uerr := h.Unlock(th)
	if uerr == nil {
		return
	}

	kfmt.Errorf("heap: unlock: %s", uerr)
	if *err == nil {
		*err = uerr
	}
}

// Used returns the number of bytes handed out.
func (h *Heap) Used() mem.Size {
	return h.arena.Used()
}
