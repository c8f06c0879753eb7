package sched

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// requestKind is a bitset of reasons for entering the scheduler core.
type requestKind uint16

const (
	reqNone     requestKind = 0
	reqRegular  requestKind = 1 << 1
	reqSemWait  requestKind = 1 << 2
	reqAwakeSem requestKind = 1 << 3
	reqAwakeIRQ requestKind = 1 << 4
	reqYield    requestKind = 1 << 5
	reqSleep    requestKind = 1 << 6
	reqExit     requestKind = 1 << 7
)

// request describes one invocation of the scheduler core. It is built fresh
// for every call and never stored.
type request struct {
	kind  requestKind
	sem   sem.ID
	pid   task.ThreadID
	sleep uint64
}
