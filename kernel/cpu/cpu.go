// Package cpu describes the register file and privilege modes of the console
// CPU, an ARMv4-class core.
package cpu

import (
	"io"

	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
)

// Register holds one 32-bit machine word.
type Register uint32

// Register file indices.
const (
	R0 = 0
	R1 = 1
	R2 = 2
	R3 = 3

	// SP is the banked user stack pointer (r13).
	SP = 13

	// LR is the user link register (r14).
	LR = 14

	// PC is the program counter (r15) as captured by the trap vector.
	PC = 15

	// PSR is the saved program status word.
	PSR = 16

	// NumRegs is the size of a saved register file.
	NumRegs = 17
)

// InstructionWidth is the size in bytes of one instruction.
const InstructionWidth = 4

// Context is a saved user register file.
type Context [NumRegs]Register

// DumpTo outputs the register contents to w.
func (c *Context) DumpTo(w io.Writer) {
	for i := 0; i < 12; i += 4 {
		kfmt.Fprintf(w, "R%-2d = %8x R%-2d = %8x R%-2d = %8x R%-2d = %8x\n",
			i, c[i], i+1, c[i+1], i+2, c[i+2], i+3, c[i+3])
	}
	kfmt.Fprintf(w, "R12 = %8x\n", c[12])
	kfmt.Fprintf(w, "SP  = %8x LR  = %8x PC  = %8x\n", c[SP], c[LR], c[PC])
	kfmt.Fprintf(w, "PSR = %8x\n", c[PSR])
}

// Mode is a processor privilege mode as encoded in the low PSR bits.
type Mode uint32

// Processor modes used by the kernel.
const (
	User Mode = 0x10
	IRQ  Mode = 0x12
	SVC  Mode = 0x13
)

func (m Mode) String() string {
	switch m {
	case User:
		return "usr"
	case IRQ:
		return "irq"
	case SVC:
		return "svc"
	default:
		return "mode?"
	}
}

// AdjustPC returns the correction to apply to a program counter saved while
// the CPU was in mode saved before returning to user code from mode
// restoring. A supervisor trap records the address after the trapping
// instruction while an interrupt records the interrupted address plus one
// instruction, and the two return sequences compensate differently.
//
// ok is false for mode pairs that never occur on a healthy kernel.
func AdjustPC(saved, restoring Mode) (offset int32, ok bool) {
	switch {
	case saved == restoring:
		return 0, true
	case saved == SVC && restoring == IRQ:
		return InstructionWidth, true
	case saved == IRQ && restoring == SVC:
		return -InstructionWidth, true
	default:
		return 0, false
	}
}

// ResumeAddr returns the address execution continues at when the exception
// return sequence for mode m runs with pc in the link register.
func ResumeAddr(m Mode, pc Register) Register {
	if m == IRQ {
		return pc - InstructionWidth
	}
	return pc
}
