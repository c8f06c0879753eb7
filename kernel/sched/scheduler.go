// Package sched holds the kernel state: the task and semaphore tables, the
// ready, waiting and zombie queues and the scheduler core that moves threads
// between them.
//
// Every kernel entry point returns a cpu.Transfer telling the trap exit path
// whether to resume the interrupted thread, resume another thread whose
// registers have been loaded into the live context, or halt.
package sched

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/arch"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/list"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/trace"
)

// Tracer receives an event for every context switch.
type Tracer interface {
	Record(ev trace.Event)
}

// Scheduler is the kernel state. The zero value is unusable; call Boot.
type Scheduler struct {
	cfg arch.Config

	heap   mem.BootAllocator
	stacks *mem.StackAllocator
	tasks  task.Table
	sems   sem.Table
	irqs   irq.Table

	ready   *list.List
	waiting *list.List
	zombie  *list.List

	current task.ThreadID
	idle    task.ThreadID

	// ctx is the user register file saved by the trap vector. Kernel
	// entries read the trapping thread from it and leave the registers of
	// the thread to resume in it.
	ctx  cpu.Context
	mode cpu.Mode

	timerLine  irq.Line
	dispatched irq.Line

	// cycles accumulates every cycle counter reading; elapsed is the
	// same time in microseconds.
	cycles  uint64
	elapsed uint64

	usPerCycleFixed8 uint64
	resolutionNs     uint32

	epochMs     uint64
	epochUs     uint64
	epochCycles uint64

	policy Policy
	tracer Tracer

	running bool
}

// SetPolicy replaces the round robin policy. A nil p restores CounterPolicy.
func (s *Scheduler) SetPolicy(p Policy) {
	if p == nil {
		p = &CounterPolicy{}
	}
	s.policy = p
}

// SetTracer installs t to receive switch events. A nil t disables tracing.
func (s *Scheduler) SetTracer(t Tracer) {
	s.tracer = t
}

// Running reports whether boot completed and the kernel has not halted.
func (s *Scheduler) Running() bool {
	return s.running
}

// Context returns the live user register file shared with the trap vector.
func (s *Scheduler) Context() *cpu.Context {
	return &s.ctx
}

// Current returns the id of the running thread.
func (s *Scheduler) Current() task.ThreadID {
	return s.current
}

// Idle returns the id of the idle thread.
func (s *Scheduler) Idle() task.ThreadID {
	return s.idle
}

// Entry returns the start routine of the running thread. The entry
// trampoline calls it with the argument found in R0.
func (s *Scheduler) Entry() uint32 {
	return s.currentTCB().Start
}

// Elapsed returns the kernel uptime in microseconds as of the last scheduler
// invocation.
func (s *Scheduler) Elapsed() uint64 {
	return s.elapsed
}

// Enter runs fn as a kernel entry taken from mode. A fatal error raised while
// fn runs stops the kernel and is reported as a Halt transfer.
func (s *Scheduler) Enter(mode cpu.Mode, fn func() cpu.Transfer) (tr cpu.Transfer) {
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(*kfmt.Halt)
			if !ok {
				panic(r)
			}
			s.running = false
			tr = cpu.HaltTransfer(h.Err)
		}
	}()

	s.mode = mode
	return fn()
}

func (s *Scheduler) currentTCB() *task.TCB {
	tcb := s.tasks.Lookup(s.current)
	kfmt.Assert(tcb != nil, "sched", "no current tcb")
	return tcb
}

func (s *Scheduler) lookup(id task.ThreadID) *task.TCB {
	tcb := s.tasks.Lookup(id)
	kfmt.Assert(tcb != nil, "sched", "not found")
	return tcb
}

// process is the scheduler core. Every path through it except a none request
// ends with a switch.
func (s *Scheduler) process(req request) cpu.Transfer {
	if req.kind == reqNone {
		return cpu.ContinueTransfer()
	}

	cyc := uint64(s.cfg.ReadAndClearCycles())
	s.cycles += cyc
	s.elapsed += (cyc * s.usPerCycleFixed8) >> 8

	cur := s.currentTCB()
	if cur.Status == task.Ready {
		cur.Save(&s.ctx, s.mode)
	}

	// IRQ waiters go first, ahead of the tick bookkeeping.
	if req.kind&reqAwakeIRQ != 0 {
		if id := s.findWaiter(s.irqWaiter); id != task.InvalidID {
			return s.awake(id, trace.IRQ)
		}
		if tcb := s.tasks.Pinned(s.dispatched); tcb != nil {
			tcb.PendingIRQ++
		}
	}

	if req.kind&reqRegular != 0 {
		if id := s.findWaiter(s.semTimedOut); id != task.InvalidID {
			s.timeout(id)
			return s.awake(id, trace.Timeout)
		}
		if id := s.findWaiter(s.timerExpired); id != task.InvalidID {
			return s.awake(id, trace.Timer)
		}
	}

	switch {
	case req.kind&reqSemWait != 0:
		s.park(task.WaitSemaphore)
	case req.kind&reqYield != 0:
		reason := task.WaitYield
		if cur.IRQ != irq.None {
			reason = task.WaitIRQ
		}
		s.park(reason)
	case req.kind&reqSleep != 0:
		wake := task.WakeNever
		if req.sleep < task.WakeNever-s.elapsed {
			wake = s.elapsed + req.sleep
		}
		s.park(task.WaitTimer).WakeAt = wake
	case req.kind&reqAwakeSem != 0:
		id := s.findWaiter(func(tcb *task.TCB) bool {
			return tcb.Waiting == task.WaitSemaphore && tcb.WaitSem == req.sem
		})
		kfmt.Assert(id != task.InvalidID, "sched", "no thread waiting for semaphore")
		s.lookup(id).WaitSem = sem.InvalidID
		return s.awake(id, trace.Post)
	case req.kind&reqExit != 0:
		s.ready.Erase(req.pid)
		s.waiting.Erase(req.pid)
		s.zombie.PushBack(req.pid)
		tcb := s.lookup(req.pid)
		tcb.Status = task.Zombie
		tcb.Waiting = task.WaitNone
	}

	if s.waiting.Size() > 0 {
		id := s.findWaiter(func(tcb *task.TCB) bool {
			return tcb.Waiting == task.WaitYield
		})
		switch {
		case id == task.InvalidID:
		case id == s.current && req.kind&reqYield != 0:
			return s.handOff()
		default:
			return s.awake(id, trace.Yield)
		}
	}

	if n := s.ready.Size(); n > 1 {
		sel := 1 + s.policy.Pick(n-1)
		if id, ok := s.ready.At(sel); ok {
			return s.switchTo(id, trace.RoundRobin)
		}
	}

	id, ok := s.ready.At(0)
	kfmt.Assert(ok, "sched", "not found idle pid")
	kfmt.Assert(id == s.idle, "sched", "invalid idle pid")
	return s.switchTo(id, trace.Idle)
}

// findWaiter returns the first thread on the waiting queue matching fn.
func (s *Scheduler) findWaiter(fn func(*task.TCB) bool) task.ThreadID {
	found := task.InvalidID
	s.waiting.Each(func(id task.ThreadID) bool {
		if fn(s.lookup(id)) {
			found = id
			return false
		}
		return true
	})
	return found
}

func (s *Scheduler) irqWaiter(tcb *task.TCB) bool {
	return tcb.Waiting == task.WaitIRQ && tcb.IRQ == s.dispatched
}

func (s *Scheduler) semTimedOut(tcb *task.TCB) bool {
	return tcb.Waiting == task.WaitSemaphore && s.epochUs+s.elapsed >= tcb.WakeAt
}

func (s *Scheduler) timerExpired(tcb *task.TCB) bool {
	return tcb.Waiting == task.WaitTimer && s.elapsed >= tcb.WakeAt
}

// timeout gives back the unit a timed semaphore wait took and records the
// timeout in the waiter's bridge.
func (s *Scheduler) timeout(id task.ThreadID) {
	tcb := s.lookup(id)
	if sm := s.sems.Lookup(tcb.WaitSem); sm != nil {
		sm.Count++
	}
	tcb.WaitSem = sem.InvalidID
	s.setErrorIn(id, kernel.ETIMEDOUT)
}

// park moves the current thread from the ready to the waiting queue.
func (s *Scheduler) park(reason task.WaitReason) *task.TCB {
	s.ready.Erase(s.current)
	s.waiting.PushBack(s.current)
	tcb := s.currentTCB()
	tcb.Waiting = reason
	return tcb
}

// requeue clears the wait state of id and moves it to the back of the ready
// queue.
func (s *Scheduler) requeue(id task.ThreadID) {
	tcb := s.tasks.Lookup(id)
	kfmt.Assert(tcb != nil, "sched", "invalid tcb_wakeup")
	tcb.Waiting = task.WaitNone

	s.waiting.Erase(id)
	s.ready.Erase(id)
	s.ready.PushBack(id)
}

func (s *Scheduler) awake(id task.ThreadID, cause trace.Cause) cpu.Transfer {
	s.requeue(id)
	return s.switchTo(id, cause)
}

// handOff lets a yielding thread go to the back of the ready queue and runs
// the thread that has been ready the longest.
func (s *Scheduler) handOff() cpu.Transfer {
	s.requeue(s.current)
	id, ok := s.ready.At(1)
	kfmt.Assert(ok, "sched", "idle thread yielded")
	return s.switchTo(id, trace.Yield)
}

// switchTo makes id the current thread and loads its registers into the live
// context.
func (s *Scheduler) switchTo(id task.ThreadID, cause trace.Cause) cpu.Transfer {
	kfmt.Assert(id != task.InvalidID, "sched", "no tcb")
	tcb := s.tasks.Lookup(id)
	kfmt.Assert(tcb != nil, "sched", "invalid current pid")

	if s.tracer != nil {
		s.tracer.Record(trace.Event{At: s.elapsed, From: s.current, To: id, Cause: cause})
	}
	kfmt.Debugf("switch %s -> %s (%s)", s.current, id, cause)

	s.current = id
	if tcb.Status == task.NotYetInit {
		tcb.Init(s.cfg.EntryTrampoline)
	}
	tcb.Restore(&s.ctx, s.mode)
	return cpu.SwitchTransfer(uint32(id))
}
