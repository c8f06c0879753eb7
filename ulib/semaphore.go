package ulib

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sched"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
)

// Sem is an unnamed counting semaphore.
type Sem struct {
	id sem.ID
}

// ID returns the kernel id of s.
func (s *Sem) ID() sem.ID {
	return s.id
}

// Init creates the kernel semaphore with value units. pshared is accepted
// for compatibility; there is a single address space.
func (s *Sem) Init(th *machine.Thread, pshared bool, value uint32) error {
	var shared uint32
	if pshared {
		shared = 1
	}

	b := th.Syscall(syscall.SemInit, shared, value)
	if err := b.Err(); err != nil {
		s.id = sem.InvalidID
		return err
	}
	s.id = b.RetSID
	return nil
}

// Wait takes a unit, blocking until one is posted.
func (s *Sem) Wait(th *machine.Thread) error {
	return th.Syscall(syscall.SemWait, uint32(s.id), uint32(sem.Wait)).Err()
}

// TryWait takes a unit if one is available and fails with EAGAIN otherwise.
func (s *Sem) TryWait(th *machine.Thread) error {
	return th.Syscall(syscall.SemWait, uint32(s.id), uint32(sem.TryWait)).Err()
}

// TimedWait is Wait with a deadline on the realtime clock. It fails with
// ETIMEDOUT if no unit was posted by then.
func (s *Sem) TimedWait(th *machine.Thread, deadline sched.Timespec) error {
	return th.Syscall(syscall.SemWait,
		uint32(s.id),
		uint32(sem.TimedWait),
		uint32(deadline.Sec),
		deadline.Nsec,
	).Err()
}

// Post returns a unit. The first blocked waiter, if any, runs immediately.
func (s *Sem) Post(th *machine.Thread) error {
	return th.Syscall(syscall.SemPost, uint32(s.id)).Err()
}

// Value returns the semaphore count. A negative count is the number of
// blocked waiters.
func (s *Sem) Value(th *machine.Thread) (int32, error) {
	b := th.Syscall(syscall.SemGetValue, uint32(s.id))
	if err := b.Err(); err != nil {
		return 0, err
	}
	return b.RetSemCount, nil
}

// Destroy is not implemented; the kernel never frees semaphores.
func (s *Sem) Destroy(th *machine.Thread) error {
	return unsupported(th)
}

// OpenNamed always fails: named semaphores are not supported.
func OpenNamed(th *machine.Thread, name string) (*Sem, error) {
	return nil, unsupported(th)
}

// CloseNamed always fails.
func CloseNamed(th *machine.Thread, s *Sem) error {
	return unsupported(th)
}

// UnlinkNamed always fails.
func UnlinkNamed(th *machine.Thread, name string) error {
	return unsupported(th)
}
