// Package task implements thread control blocks, the fixed task table and the
// per-thread syscall bridge.
package task

import (
	"fmt"

	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
)

// ThreadID identifies a thread. It combines an allocation generation (high
// 16 bits) with the table slot (low 16 bits). The zero ID is never issued.
type ThreadID uint32

// InvalidID is the reserved "no thread" value.
const InvalidID ThreadID = 0

// Slot returns the table index encoded in id.
func (id ThreadID) Slot() int {
	return int(id & 0xffff)
}

func (id ThreadID) String() string {
	return fmt.Sprintf("%x", uint32(id))
}

// Status is the lifecycle state of a TCB.
type Status uint8

const (
	// NotYetInit threads have never run; their register file is set up
	// on first switch-in.
	NotYetInit Status = iota
	Ready
	Zombie
)

// WaitReason records why a thread sits on the waiting queue.
type WaitReason uint8

// Wait reasons.
const (
	WaitNone WaitReason = iota
	WaitSemaphore
	WaitYield
	WaitTimer
	WaitIRQ
)

var waitNames = [...]string{"none", "sem", "yield", "timer", "irq"}

func (w WaitReason) String() string {
	if int(w) < len(waitNames) {
		return waitNames[w]
	}
	return "?"
}

// Class is a scheduling class. Values match the user-facing SCHED_* codes.
type Class uint32

// Scheduling classes.
const (
	FIFO     Class = 1
	RR       Class = 2
	Sporadic Class = 3
	IRQClass Class = 4
	Other    Class = 5
)

// Supported reports whether threads may be created with class c.
func (c Class) Supported() bool {
	return c == FIFO || c == RR || c == IRQClass
}

// WakeNever is the wake-up time of a wait without deadline.
const WakeNever = ^uint64(0)

// TCB is a thread control block.
type TCB struct {
	// Regs is valid only while the thread is not current.
	Regs cpu.Context

	ID ThreadID

	// Start and Arg are the entry routine address and its argument.
	Start uint32
	Arg   uint32

	// StackAddr is the bridge address; the initial stack pointer starts
	// there and grows down.
	StackAddr mem.Addr
	StackSize mem.Size

	WaitSem sem.ID
	Status  Status
	Waiting WaitReason

	// SavedMode is the CPU mode active when Regs was captured.
	SavedMode cpu.Mode

	Class Class
	IRQ   irq.Line

	// PendingIRQ counts interrupts on IRQ that fired while the thread was
	// not waiting for its line. Each one lets a later yield return at once.
	PendingIRQ uint32

	// WakeAt is an absolute deadline in microseconds. Timer waits use the
	// kernel uptime, semaphore waits use realtime.
	WakeAt uint64
}

func (t *TCB) clear() {
	*t = TCB{
		StackSize: 0x100,
		IRQ:       irq.None,
	}
}

// Init prepares the register file of a thread that has never run: execution
// starts at the entry trampoline with the user argument in R0 and the stack
// pointer at the bridge.
func (t *TCB) Init(trampoline uint32) {
	kfmt.Assert(t.Status == NotYetInit, "task", "already initialized")

	t.Regs = cpu.Context{}
	t.Regs[cpu.R0] = cpu.Register(t.Arg)
	t.Regs[cpu.SP] = cpu.Register(t.StackAddr)
	t.Regs[cpu.PC] = cpu.Register(trampoline + cpu.InstructionWidth)
	t.Regs[cpu.PSR] = cpu.Register(cpu.User)
	t.SavedMode = cpu.IRQ
	t.Status = Ready
}

// Save captures the live user context while the CPU is in mode.
func (t *TCB) Save(live *cpu.Context, mode cpu.Mode) {
	t.SavedMode = mode
	t.Regs = *live
}

// Restore loads the saved registers into the live user context for a return
// from mode, correcting the program counter when mode differs from the one
// the registers were saved in.
func (t *TCB) Restore(live *cpu.Context, mode cpu.Mode) {
	offset, ok := cpu.AdjustPC(t.SavedMode, mode)
	kfmt.Assert(ok, "task", "unknown cpsr_mode")

	*live = t.Regs
	live[cpu.PC] = cpu.Register(int64(t.Regs[cpu.PC]) + int64(offset))
}
