package mem

import (
	"unsafe"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
)

// KernelHeapSize is the size of the static pool backing BootAllocator.
const KernelHeapSize = 8 * Kb

var errBootAllocOutOfMemory = &kernel.Error{Module: "boot_mem_alloc", Message: "out of memory", Errno: kernel.ENOMEM}

// BootAllocator is a bump allocator over a static pool. It is used while the
// kernel builds its queues at boot and never frees anything. Running out of
// pool space is a kernel configuration error and halts the system.
type BootAllocator struct {
	// The pool is backed by 64-bit words so that every carved block is
	// at least 8-byte aligned relative to a correctly aligned base.
	pool [KernelHeapSize / 8]uint64

	used Size
}

// Reset discards every allocation.
func (a *BootAllocator) Reset() {
	a.used = 0
}

// Used returns the number of pool bytes handed out so far.
func (a *BootAllocator) Used() Size {
	return a.used
}

// Alloc reserves size bytes rounded up to a multiple of 4 and returns a
// pointer to the zeroed block.
func (a *BootAllocator) Alloc(size Size) unsafe.Pointer {
	return a.alloc(size, 4)
}

func (a *BootAllocator) alloc(size, align Size) unsafe.Pointer {
	start := AlignSize(a.used, align)
	size = AlignSize(size, 4)
	if start+size > KernelHeapSize {
		kfmt.Panic(errBootAllocOutOfMemory)
	}
	a.used = start + size

	base := unsafe.Pointer(&a.pool[0])
	block := unsafe.Slice((*byte)(unsafe.Add(base, start)), size)
	for i := range block {
		block[i] = 0
	}
	return unsafe.Add(base, start)
}

// AllocSlice carves a zeroed slice of n elements of T from a. T must not
// contain Go pointers because the pool is invisible to the garbage collector.
func AllocSlice[T any](a *BootAllocator, n int) []T {
	var zero T
	elemSize := Size(unsafe.Sizeof(zero))
	align := Size(unsafe.Alignof(zero))
	if align < 4 {
		align = 4
	}
	if n == 0 || elemSize == 0 {
		return nil
	}
	return unsafe.Slice((*T)(a.alloc(elemSize*Size(n), align)), n)
}
