package sched

import (
	"fmt"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// Snapshot is a copy of the queue state. The running thread stays on the
// ready queue internally so that the idle thread keeps index 0; Snapshot
// reports it only as Current.
type Snapshot struct {
	Current task.ThreadID
	Ready   []task.ThreadID
	Waiting []task.ThreadID
	Zombie  []task.ThreadID
}

// Snapshot returns the current queue state.
func (s *Scheduler) Snapshot() Snapshot {
	sn := Snapshot{
		Current: s.current,
		Waiting: s.waiting.IDs(),
		Zombie:  s.zombie.IDs(),
	}

	sn.Ready = make([]task.ThreadID, 0, s.ready.Size())
	s.ready.Each(func(id task.ThreadID) bool {
		if id != s.current {
			sn.Ready = append(sn.Ready, id)
		}
		return true
	})
	return sn
}

// Verify checks that every thread appears exactly once among the current
// thread and the three queues.
func (sn Snapshot) Verify() *kernel.Error {
	seen := map[task.ThreadID]string{sn.Current: "current"}

	check := func(where string, ids []task.ThreadID) *kernel.Error {
		for _, id := range ids {
			if prev, dup := seen[id]; dup {
				return &kernel.Error{
					Module:  "sched",
					Message: fmt.Sprintf("thread %s is both %s and %s", id, prev, where),
				}
			}
			seen[id] = where
		}
		return nil
	}

	if err := check("ready", sn.Ready); err != nil {
		return err
	}
	if err := check("waiting", sn.Waiting); err != nil {
		return err
	}
	return check("zombie", sn.Zombie)
}

// Thread returns a copy of the TCB of id.
func (s *Scheduler) Thread(id task.ThreadID) (task.TCB, bool) {
	tcb := s.tasks.Lookup(id)
	if tcb == nil {
		return task.TCB{}, false
	}
	return *tcb, true
}

// Threads returns the number of threads that have not exited.
func (s *Scheduler) Threads() int {
	return s.tasks.Live()
}
