package mem

import "github.com/fkuzume/beep8-sdk-sub000/kernel"

// StackAlign is the alignment of every thread stack.
const StackAlign Size = 8

var errStackExhausted = &kernel.Error{Module: "stack_alloc", Message: "stack region exhausted", Errno: kernel.ENOMEM}

// StackAllocator carves thread stacks out of a fixed region, lowest address
// first. Stacks are never returned.
type StackAllocator struct {
	base Addr
	size Size
	used Size
}

// NewStackAllocator returns an allocator over [base, base+size). The base is
// rounded up to StackAlign and the size shrinks by the same amount.
func NewStackAllocator(base Addr, size Size) *StackAllocator {
	aligned := AlignUp(base, StackAlign)
	if pad := Size(aligned - base); pad < size {
		size -= pad
	} else {
		size = 0
	}
	return &StackAllocator{base: aligned, size: size}
}

// Base returns the aligned start of the region.
func (s *StackAllocator) Base() Addr { return s.base }

// Size returns the usable size of the region.
func (s *StackAllocator) Size() Size { return s.size }

// Used returns the number of bytes handed out so far.
func (s *StackAllocator) Used() Size { return s.used }

// Alloc reserves a stack of at least size bytes and returns the address just
// past its highest byte. Stacks grow down from that address.
func (s *StackAllocator) Alloc(size Size) (Addr, *kernel.Error) {
	size = AlignSize(size, StackAlign)
	if size > s.size-s.used {
		return 0, errStackExhausted
	}

	s.used += size
	return s.base + Addr(s.used), nil
}
