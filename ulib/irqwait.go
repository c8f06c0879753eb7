package ulib

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// IRQWaiter lets threads block until an interrupt line fires. A helper
// thread pinned to the line posts a semaphore for every event it sees.
type IRQWaiter struct {
	line   irq.Line
	events Sem
	helper task.ThreadID
}

// SetupIrqWait creates the waiter for line. Each line can have a single
// waiter; a second setup fails with EINVAL.
func SetupIrqWait(th *machine.Thread, line irq.Line) (*IRQWaiter, error) {
	w := &IRQWaiter{line: line}
	if err := w.events.Init(th, false, 0); err != nil {
		return nil, err
	}

	attr := NewAttr()
	attr.SetSchedPolicy(task.IRQClass)
	attr.SetIRQ(line)

	id, err := CreateThread(th, &attr, w.relay, 0)
	if err != nil {
		return nil, err
	}
	w.helper = id
	return w, nil
}

// relay is the helper thread body. A pinned thread that yields sleeps until
// its line is dispatched.
func (w *IRQWaiter) relay(th *machine.Thread, _ uint32) {
	for {
		Yield(th)
		if err := w.events.Post(th); err != nil && err != kernel.EOVERFLOW {
			return
		}
	}
}

// Line returns the interrupt line w waits on.
func (w *IRQWaiter) Line() irq.Line {
	return w.line
}

// Wait blocks until the line fires. Events that fired since the last wait
// satisfy it immediately.
func (w *IRQWaiter) Wait(th *machine.Thread) error {
	return w.events.Wait(th)
}

// ClearAndWait discards the events that already fired and blocks until the
// next one.
func (w *IRQWaiter) ClearAndWait(th *machine.Thread) error {
	for w.events.TryWait(th) == nil {
	}
	return w.events.Wait(th)
}

// Pending returns the number of events that fired and were not yet waited
// for.
func (w *IRQWaiter) Pending(th *machine.Thread) (int32, error) {
	v, err := w.events.Value(th)
	if err != nil || v < 0 {
		return 0, err
	}
	return v, nil
}
