package sched

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

var (
	errBadClass  = &kernel.Error{Module: "sched", Message: "unsupported scheduling class", Errno: kernel.EINVAL}
	errTableFull = &kernel.Error{Module: "sched", Message: "task table full", Errno: kernel.EAGAIN}
	errBadStack  = &kernel.Error{Module: "sched", Message: "stack outside memory", Errno: kernel.EINVAL}
)

// ThreadParams describes a thread to create.
type ThreadParams struct {
	// StackAddr is the top of a caller supplied stack. Zero carves a
	// stack of StackSize bytes from the stack region.
	StackAddr mem.Addr
	StackSize mem.Size

	// Start is the code address of the entry routine and Arg its
	// argument.
	Start uint32
	Arg   uint32

	Class task.Class

	// IRQ pins the thread to an interrupt line; irq.None for regular
	// threads.
	IRQ irq.Line
}

// CreateThread allocates a TCB and a bridge for a new thread and appends it to
// the ready queue. The thread gets its registers the first time it is
// switched in. On failure nothing is left allocated except stack space.
func (s *Scheduler) CreateThread(p ThreadParams) (task.ThreadID, *kernel.Error) {
	if !p.Class.Supported() {
		return task.InvalidID, errBadClass
	}

	if p.IRQ != irq.None {
		if err := s.irqs.Attach(p.IRQ, s.dispatch, nil); err != nil {
			return task.InvalidID, err
		}
	}

	rollback := func(id task.ThreadID) {
		if id != task.InvalidID {
			s.tasks.Free(id)
		}
		if p.IRQ != irq.None {
			s.irqs.Detach(p.IRQ)
		}
	}

	id := s.tasks.Allocate()
	if id == task.InvalidID {
		rollback(id)
		return task.InvalidID, errTableFull
	}

	top := p.StackAddr
	if top == 0 {
		var err *kernel.Error
		if top, err = s.stacks.Alloc(p.StackSize); err != nil {
			rollback(id)
			return task.InvalidID, err
		}
	}

	if top < mem.Addr(task.BridgeSize) {
		rollback(id)
		return task.InvalidID, errBadStack
	}
	bridgeAt := top - mem.Addr(task.BridgeSize)

	b := task.NewBridge(id)
	b.RetPID = task.InvalidID
	if err := b.Store(s.cfg.Memory, bridgeAt); err != nil {
		rollback(id)
		return task.InvalidID, errBadStack
	}

	tcb := s.tasks.Lookup(id)
	tcb.Start = p.Start
	tcb.Arg = p.Arg
	tcb.StackAddr = bridgeAt
	tcb.StackSize = p.StackSize
	tcb.Class = p.Class
	tcb.IRQ = p.IRQ

	s.ready.PushBack(id)
	return id, nil
}

// Yield parks the current thread. Threads pinned to an interrupt line wait
// for their line; all others go behind the threads that are ready. A pinned
// thread whose line fired while it was running keeps the CPU and consumes
// one of those events instead.
func (s *Scheduler) Yield() cpu.Transfer {
	if cur := s.currentTCB(); cur.IRQ != irq.None && cur.PendingIRQ > 0 {
		cur.PendingIRQ--
		return cpu.ContinueTransfer()
	}
	return s.process(request{kind: reqYield})
}

// Sleep parks the current thread for at least us microseconds of kernel
// uptime.
func (s *Scheduler) Sleep(us uint64) cpu.Transfer {
	return s.process(request{kind: reqSleep, sleep: us})
}

// Exit moves the current thread to the zombie queue. Its TCB and stack are
// never reclaimed.
func (s *Scheduler) Exit() cpu.Transfer {
	return s.process(request{kind: reqExit, pid: s.current})
}
