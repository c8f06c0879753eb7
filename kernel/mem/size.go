package mem

// Size represents a memory block size in bytes.
type Size uint32

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
)

// Addr is an address in the console's 32-bit physical address space.
type Addr uint32

// AlignUp rounds a up to the next multiple of align, which must be a power
// of 2.
func AlignUp(a Addr, align Size) Addr {
	return (a + Addr(align-1)) &^ Addr(align-1)
}

// AlignSize rounds s up to the next multiple of align, which must be a power
// of 2.
func AlignSize(s Size, align Size) Size {
	return (s + align - 1) &^ (align - 1)
}
