package sched

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
)

// IRQ is the interrupt entry point. line is the acknowledged interrupt.
func (s *Scheduler) IRQ(line irq.Line) cpu.Transfer {
	return s.Enter(cpu.IRQ, func() cpu.Transfer {
		return s.irqs.Dispatch(line)
	})
}

// dispatch is the handler shared by the system timer and every line a thread
// is pinned to.
func (s *Scheduler) dispatch(line irq.Line, _ interface{}) cpu.Transfer {
	s.dispatched = line

	req := request{kind: reqAwakeIRQ}
	if line == s.timerLine {
		req.kind = reqRegular
	}
	return s.process(req)
}
