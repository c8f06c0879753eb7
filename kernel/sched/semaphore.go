package sched

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
)

// SemInit creates a semaphore holding value and returns its id. A full table
// or a value above sem.ValueMax records EINVAL and returns sem.InvalidID.
func (s *Scheduler) SemInit(value uint32) sem.ID {
	if value > sem.ValueMax {
		s.SetError(kernel.EINVAL)
		return sem.InvalidID
	}

	id, ok := s.sems.Init(int32(value))
	if !ok {
		s.SetError(kernel.EINVAL)
		return sem.InvalidID
	}
	s.SetError(0)
	return id
}

// SemWait takes one unit from semaphore id. When none is available a TryWait
// fails with EAGAIN while the other modes block the current thread until a
// post hands it a unit or, for finite wakeAt, the realtime clock in
// microseconds reaches wakeAt.
func (s *Scheduler) SemWait(id sem.ID, mode sem.Mode, wakeAt uint64) cpu.Transfer {
	sm := s.sems.Lookup(id)
	if sm == nil {
		s.SetError(kernel.EINVAL)
		return cpu.ContinueTransfer()
	}

	cur := s.currentTCB()
	cur.WakeAt = wakeAt
	if sm.Count > 0 {
		sm.Count--
		cur.WaitSem = sem.InvalidID
		s.SetError(0)
		return cpu.ContinueTransfer()
	}

	if mode == sem.TryWait {
		s.SetError(kernel.EAGAIN)
		return cpu.ContinueTransfer()
	}

	sm.Count--
	cur.WaitSem = id
	s.SetError(0)
	return s.process(request{kind: reqSemWait})
}

// SemPost returns one unit to semaphore id. If a thread is blocked on it, the
// first such thread is woken and runs immediately.
func (s *Scheduler) SemPost(id sem.ID) cpu.Transfer {
	sm := s.sems.Lookup(id)
	if sm == nil {
		s.SetError(kernel.EINVAL)
		return cpu.ContinueTransfer()
	}

	if sm.Count >= sem.ValueMax {
		s.SetError(kernel.EOVERFLOW)
		return cpu.ContinueTransfer()
	}

	sm.Count++
	s.SetError(0)
	if sm.Count <= 0 {
		return s.process(request{kind: reqAwakeSem, sem: id})
	}
	return cpu.ContinueTransfer()
}

// SemValue returns the count of semaphore id. A negative count is the number
// of blocked threads.
func (s *Scheduler) SemValue(id sem.ID) (int32, bool) {
	sm := s.sems.Lookup(id)
	if sm == nil {
		return 0, false
	}
	return sm.Count, true
}
