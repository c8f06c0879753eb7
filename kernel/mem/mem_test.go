package mem

import (
	"testing"
	"unsafe"

	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
)

func TestAlign(t *testing.T) {
	specs := []struct {
		in    Addr
		align Size
		exp   Addr
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{0x1003, 4, 0x1004},
		{0x1fff, 8, 0x2000},
	}

	for specIndex, spec := range specs {
		if got := AlignUp(spec.in, spec.align); got != spec.exp {
			t.Errorf("[spec %d] expected AlignUp(%x, %d) = %x; got %x", specIndex, spec.in, spec.align, spec.exp, got)
		}
		if got := AlignSize(Size(spec.in), spec.align); got != Size(spec.exp) {
			t.Errorf("[spec %d] expected AlignSize(%x, %d) = %x; got %x", specIndex, spec.in, spec.align, spec.exp, got)
		}
	}
}

func TestBootAllocator(t *testing.T) {
	var alloc BootAllocator

	p1 := alloc.Alloc(3)
	if got := alloc.Used(); got != 4 {
		t.Fatalf("expected a 3 byte request to consume 4 bytes; got %d", got)
	}

	p2 := alloc.Alloc(8)
	if exp := uintptr(p1) + 4; uintptr(p2) != exp {
		t.Fatalf("expected second block at %x; got %x", exp, uintptr(p2))
	}

	type node struct {
		next, prev uint16
		id         uint32
	}
	nodes := AllocSlice[node](&alloc, 10)
	if len(nodes) != 10 {
		t.Fatalf("expected 10 nodes; got %d", len(nodes))
	}
	if uintptr(unsafe.Pointer(&nodes[0]))%unsafe.Alignof(nodes[0]) != 0 {
		t.Fatal("expected node slice to be aligned")
	}
	if exp := Size(12 + 10*8); alloc.Used() != exp {
		t.Fatalf("expected %d bytes in use; got %d", exp, alloc.Used())
	}

	alloc.Reset()
	if alloc.Used() != 0 {
		t.Fatalf("expected Reset to release the pool; got %d in use", alloc.Used())
	}

	// Reused memory comes back zeroed.
	*(*uint32)(alloc.Alloc(4)) = 0xdeadbeef
	alloc.Reset()
	if v := *(*uint32)(alloc.Alloc(4)); v != 0 {
		t.Fatalf("expected zeroed block; got %x", v)
	}
}

func TestBootAllocatorExhaustion(t *testing.T) {
	defer kfmt.SetOutputSink(nil)

	var alloc BootAllocator
	alloc.Alloc(KernelHeapSize - 4)

	defer func() {
		h, ok := recover().(*kfmt.Halt)
		if !ok {
			t.Fatal("expected exhaustion to halt")
		}
		if h.Err != errBootAllocOutOfMemory {
			t.Fatalf("expected %v; got %v", errBootAllocOutOfMemory, h.Err)
		}
	}()

	alloc.Alloc(8)
}

func TestStackAllocator(t *testing.T) {
	t.Run("aligned region", func(t *testing.T) {
		s := NewStackAllocator(0x1000, 0x800)

		top, err := s.Alloc(0x100)
		if err != nil {
			t.Fatal(err)
		}
		if top != 0x1100 {
			t.Fatalf("expected first stack top at 0x1100; got %x", top)
		}

		if top, _ = s.Alloc(0x13); top != 0x1118 {
			t.Fatalf("expected 8-aligned second stack top at 0x1118; got %x", top)
		}

		if _, err = s.Alloc(0x800); err != errStackExhausted {
			t.Fatalf("expected %v; got %v", errStackExhausted, err)
		}

		// A failed request consumes nothing.
		if s.Used() != 0x118 {
			t.Fatalf("expected 0x118 bytes used; got %x", s.Used())
		}
	})

	t.Run("misaligned base", func(t *testing.T) {
		s := NewStackAllocator(0x1004, 0x100)
		if s.Base() != 0x1008 || s.Size() != 0xfc {
			t.Fatalf("expected base 0x1008 size 0xfc; got %x %x", s.Base(), s.Size())
		}
	})
}

func TestRegion(t *testing.T) {
	r := NewRegion(0x10000, 0x100)

	if err := r.Write32(0x100fc, 0xbeafface); err != nil {
		t.Fatal(err)
	}

	v, err := r.Read32(0x100fc)
	if err != nil || v != 0xbeafface {
		t.Fatalf("expected to read back 0xbeafface; got %x, %v", v, err)
	}

	b, _ := r.Bytes(0x100fc, 4)
	if b[0] != 0xce || b[3] != 0xbe {
		t.Fatalf("expected little-endian layout; got % x", b)
	}

	specs := []struct {
		at Addr
		n  Size
	}{
		{0xfffc, 4},
		{0x100fd, 4},
		{0x10100, 1},
	}
	for specIndex, spec := range specs {
		if _, err := r.Bytes(spec.at, spec.n); err != errOutOfRange {
			t.Errorf("[spec %d] expected %v; got %v", specIndex, errOutOfRange, err)
		}
	}
}
