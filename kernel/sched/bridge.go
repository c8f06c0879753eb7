package sched

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

func (s *Scheduler) loadBridge(id task.ThreadID) (task.Bridge, *task.TCB) {
	tcb := s.tasks.Lookup(id)
	kfmt.Assert(tcb != nil, "sched", "invalid tcb")

	b, err := task.LoadBridge(s.cfg.Memory, tcb.StackAddr)
	kfmt.Assert(err == nil, "sched", "invalid bridge")
	return b, tcb
}

func (s *Scheduler) storeBridge(tcb *task.TCB, b *task.Bridge) {
	err := b.Store(s.cfg.Memory, tcb.StackAddr)
	kfmt.Assert(err == nil, "sched", "invalid bridge")
}

// Bridge returns a copy of the bridge of thread id.
func (s *Scheduler) Bridge(id task.ThreadID) task.Bridge {
	b, _ := s.loadBridge(id)
	return b
}

// UpdateBridge applies fn to the bridge of the current thread.
func (s *Scheduler) UpdateBridge(fn func(b *task.Bridge)) {
	b, tcb := s.loadBridge(s.current)
	fn(&b)
	s.storeBridge(tcb, &b)
}

// GiveBridge publishes the bridge address of the current thread in R0 so that
// it is visible to the thread on return from the trap.
func (s *Scheduler) GiveBridge() {
	s.giveBridgeTo(s.current)
}

func (s *Scheduler) giveBridgeTo(id task.ThreadID) {
	_, tcb := s.loadBridge(id)
	s.ctx[cpu.R0] = cpu.Register(tcb.StackAddr)
}

// SetError records e in the bridge of the current thread. A zero e clears the
// recorded error; any other value is kept only if no error is pending.
func (s *Scheduler) SetError(e kernel.Errno) {
	s.setErrorIn(s.current, e)
	s.GiveBridge()
}

func (s *Scheduler) setErrorIn(id task.ThreadID, e kernel.Errno) {
	kfmt.Assert(e >= 0, "sched", "errcode must be negative or zero")

	b, tcb := s.loadBridge(id)
	switch {
	case e == 0:
		b.Errcode = 0
	case b.Errcode == 0:
		kfmt.Debugf("errcode=%d", e.Code())
		b.Errcode = e.Code()
	}
	s.storeBridge(tcb, &b)
}

// SetErrno overwrites the error recorded for the current thread.
func (s *Scheduler) SetErrno(e kernel.Errno) {
	s.UpdateBridge(func(b *task.Bridge) {
		b.Errcode = e.Code()
	})
}

// Errno returns the error recorded for the current thread.
func (s *Scheduler) Errno() kernel.Errno {
	b, _ := s.loadBridge(s.current)
	return kernel.ErrnoFromCode(b.Errcode)
}
