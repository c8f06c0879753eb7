// Package irq routes interrupt lines of the console interrupt controller to
// kernel handlers.
package irq

import (
	"fmt"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
)

// Line is an interrupt line number.
type Line uint32

// The fixed line assignments of the console.
const (
	Timer0 Line = 1
	Timer1 Line = 2
	Timer2 Line = 3
	Timer3 Line = 4

	// VBlank fires at the start of each vertical blanking interval.
	VBlank Line = 5

	// Audio is raised by the audio processing unit.
	Audio Line = 6

	// Undefined is the undefined instruction trap.
	Undefined Line = 7

	// DataAbort is the data abort trap.
	DataAbort Line = 8

	// Count is the number of lines the controller supports.
	Count = 32

	// None marks a thread that is not bound to any line.
	None Line = 0xffff
)

var lineNames = map[Line]string{
	Timer0:    "TMR0",
	Timer1:    "TMR1",
	Timer2:    "TMR2",
	Timer3:    "TMR3",
	VBlank:    "VBLK",
	Audio:     "APUS",
	Undefined: "UNDF",
	DataAbort: "DABT",
	None:      "none",
}

func (l Line) String() string {
	if s, ok := lineNames[l]; ok {
		return s
	}
	return fmt.Sprintf("irq%d", uint32(l))
}

// Handler services an interrupt line. arg is the value supplied to Attach.
type Handler func(line Line, arg interface{}) cpu.Transfer

var (
	errBadLine      = &kernel.Error{Module: "irq", Message: "line out of range", Errno: kernel.EINVAL}
	errLineAttached = &kernel.Error{Module: "irq", Message: "line already has a handler", Errno: kernel.EINVAL}
	errNoHandler    = &kernel.Error{Module: "irq", Message: "nil handler", Errno: kernel.EINVAL}
)

type entry struct {
	handler Handler
	arg     interface{}
}

// Table maps each line to its handler. Lines without a handler halt the
// system when they fire.
type Table struct {
	entries [Count]entry

	// FaultStatusFn reads the memory interface fault status reported with
	// a data abort. It may be nil.
	FaultStatusFn func() uint32
}

// Reset detaches every handler.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i] = entry{}
	}
}

// Attach installs h as the handler of line. Each line has a single owner:
// attaching to a line that already has a handler fails. Line 0, the fault
// lines and lines outside the controller range never reach a handler, so
// they are refused too. Use Detach to remove a handler.
func (t *Table) Attach(line Line, h Handler, arg interface{}) *kernel.Error {
	if !attachable(line) {
		return errBadLine
	}
	if h == nil {
		return errNoHandler
	}
	if t.entries[line].handler != nil {
		return errLineAttached
	}

	t.entries[line] = entry{handler: h, arg: arg}
	return nil
}

// attachable reports whether Dispatch can deliver line to a handler.
func attachable(line Line) bool {
	return line != 0 && line != Undefined && line != DataAbort && line < Count
}

// Detach restores the default handler for line.
func (t *Table) Detach(line Line) {
	if line < Count {
		t.entries[line] = entry{}
	}
}

// Attached reports whether line has a handler installed.
func (t *Table) Attached(line Line) bool {
	return line < Count && t.entries[line].handler != nil
}

// Dispatch runs the handler for an acknowledged line. Hard faults, the
// reserved line 0, out of range lines and lines without a handler print a
// diagnostic and halt; they never reach a handler.
func (t *Table) Dispatch(line Line) cpu.Transfer {
	kfmt.Assert(line != 0, "irq", "irq == 0")

	switch {
	case line == DataAbort:
		var status uint32
		if t.FaultStatusFn != nil {
			status = t.FaultStatusFn()
		}
		kfmt.Printf("DATA ABORT\nMIF_STATUS=%x\n", status)
		kfmt.Panic(&kernel.Error{Module: "irq", Message: "data abort"})
	case line == Undefined:
		kfmt.Printf("UNDEFINED INSTRUCTION\n")
		kfmt.Panic(&kernel.Error{Module: "irq", Message: "undefined instruction"})
	case line >= Count:
		kfmt.Printf("invalid irq=0x%x\n", uint32(line))
		kfmt.Panic(&kernel.Error{Module: "irq", Message: "invalid irq"})
	}

	e := t.entries[line]
	if e.handler == nil {
		return unexpected(line)
	}
	return e.handler(line, e.arg)
}

func unexpected(line Line) cpu.Transfer {
	msg := fmt.Sprintf("unexpected irq=0x%x", uint32(line))
	kfmt.Printf("%s\n", msg)
	kfmt.Panic(&kernel.Error{Module: "irq", Message: msg})
	return cpu.ContinueTransfer()
}
