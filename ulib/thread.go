package ulib

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

const (
	// StackMin is the smallest stack a thread can be created with.
	StackMin mem.Size = syscall.MinStackSize

	// DefaultStackSize is the stack size of a fresh Attr.
	DefaultStackSize mem.Size = 0x400
)

// Attr holds thread creation attributes.
type Attr struct {
	stackAddr mem.Addr
	stackSize mem.Size
	policy    task.Class
	detached  bool
	line      irq.Line
}

// NewAttr returns the default attributes: a round robin thread with a stack
// of DefaultStackSize bytes carved by the kernel and no IRQ.
func NewAttr() Attr {
	return Attr{
		stackSize: DefaultStackSize,
		policy:    task.RR,
		line:      irq.None,
	}
}

// SetStackSize sets the size of the kernel carved stack. It must be at least
// StackMin and a multiple of 8.
func (a *Attr) SetStackSize(size mem.Size) error {
	if size < StackMin || size&7 != 0 {
		return kernel.EINVAL
	}
	a.stackSize = size
	return nil
}

// StackSize returns the configured stack size.
func (a *Attr) StackSize() mem.Size {
	return a.stackSize
}

// SetStack makes the thread run on a caller provided stack whose highest
// address is top.
func (a *Attr) SetStack(top mem.Addr, size mem.Size) error {
	if top == 0 || size < StackMin {
		return kernel.EINVAL
	}
	a.stackAddr = top
	a.stackSize = size
	return nil
}

// Stack returns the caller provided stack, if any, and the stack size.
func (a *Attr) Stack() (mem.Addr, mem.Size) {
	return a.stackAddr, a.stackSize
}

// SetSchedPolicy selects the scheduling class. The kernel rejects classes it
// does not implement when the thread is created.
func (a *Attr) SetSchedPolicy(c task.Class) {
	a.policy = c
}

// SchedPolicy returns the scheduling class.
func (a *Attr) SchedPolicy() task.Class {
	return a.policy
}

// SetDetachState records whether the thread is created detached. Threads
// are never joined so the state has no effect.
func (a *Attr) SetDetachState(detached bool) {
	a.detached = detached
}

// DetachState returns the recorded detach state.
func (a *Attr) DetachState() bool {
	return a.detached
}

// SetIRQ pins the thread to line. A pinned thread that yields sleeps until
// the line fires.
func (a *Attr) SetIRQ(line irq.Line) {
	a.line = line
}

// CreateThread starts fn as a new thread receiving arg. A nil attr selects
// NewAttr.
func CreateThread(th *machine.Thread, attr *Attr, fn machine.Entry, arg uint32) (task.ThreadID, error) {
	if attr == nil {
		def := NewAttr()
		attr = &def
	}

	entry := th.Machine().Register(fn)
	b := th.Syscall(syscall.ThreadCreate,
		uint32(attr.stackAddr),
		uint32(attr.stackSize),
		entry,
		arg,
		uint32(attr.policy),
		uint32(attr.line),
	)
	if err := b.Err(); err != nil {
		return task.InvalidID, err
	}
	return b.RetPID, nil
}

// Yield gives up the CPU. The thread runs again after the threads that were
// ready before it, or, if it is pinned to an IRQ, once the line fires.
func Yield(th *machine.Thread) {
	th.Syscall(syscall.Yield)
}

// Sleep suspends the calling thread for at least us microseconds.
func Sleep(th *machine.Thread, us uint64) {
	th.Syscall(syscall.Sleep, uint32(us>>32), uint32(us))
}

// Self returns the id of the calling thread.
func Self(th *machine.Thread) task.ThreadID {
	return th.Syscall(syscall.GetBridge).PID
}

// Exit ends the calling thread. It never returns.
func Exit(th *machine.Thread) {
	th.Syscall(syscall.Exit)
	panic("exit returned")
}

// unsupported records ENOSYS in the caller's errno and returns it.
func unsupported(th *machine.Thread) error {
	SetErrno(th, kernel.ENOSYS)
	return kernel.ENOSYS
}

// Join is not implemented.
func Join(th *machine.Thread, _ task.ThreadID) error { return unsupported(th) }

// Cancel is not implemented.
func Cancel(th *machine.Thread, _ task.ThreadID) error { return unsupported(th) }

// Detach is not implemented.
func Detach(th *machine.Thread, _ task.ThreadID) error { return unsupported(th) }

// SchedParam is not implemented.
func SchedParam(th *machine.Thread, _ task.ThreadID) (task.Class, error) {
	return 0, unsupported(th)
}

// SetSchedParam is not implemented.
func SetSchedParam(th *machine.Thread, _ task.ThreadID, _ task.Class) error {
	return unsupported(th)
}
