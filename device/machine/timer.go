package machine

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
)

const numTimers = 5

// timerLines lists the lines driven by a periodic generator: the four
// timers and vertical blank.
var timerLines = [numTimers]irq.Line{irq.Timer0, irq.Timer1, irq.Timer2, irq.Timer3, irq.VBlank}

type timer struct {
	line irq.Line

	// period is zero while the timer is stopped.
	period uint64
	next   uint64
}

func (m *Machine) timer(line irq.Line) *timer {
	for i := range m.timers {
		if m.timers[i].line == line {
			return &m.timers[i]
		}
	}
	return nil
}

// StartTimer programs the generator of line to fire hz times per second. A
// zero hz stops it. While RunFor is in progress only the running thread may
// call it.
func (m *Machine) StartTimer(line irq.Line, hz uint32) *kernel.Error {
	t := m.timer(line)
	if t == nil {
		return errNotTimer
	}

	if hz == 0 {
		t.period = 0
		return nil
	}
	if hz > m.cfg.CPUHz {
		return errBadRate
	}

	t.period = uint64(m.cfg.CPUHz / hz)
	t.next = m.now + t.period
	return nil
}

// advance moves the clock forward by n cycles and latches every timer that
// expires on the way.
func (m *Machine) advance(n uint64) {
	m.now += n
	for i := range m.timers {
		t := &m.timers[i]
		for t.period != 0 && t.next <= m.now {
			m.Raise(t.line)
			t.next += t.period
		}
	}
}

// untilNextEvent returns the number of cycles until the next timer expires
// or the run limit is reached, whichever comes first.
func (m *Machine) untilNextEvent() uint64 {
	var d uint64
	if m.limit > m.now {
		d = m.limit - m.now
	}

	for i := range m.timers {
		if t := &m.timers[i]; t.period != 0 && t.next-m.now < d {
			d = t.next - m.now
		}
	}
	return d
}

// Raise latches line in the interrupt controller. It is safe to call from
// any goroutine.
func (m *Machine) Raise(line irq.Line) {
	m.lock.Acquire()
	m.pending.PushBack(line)
	m.lock.Release()
}

// Fault latches a hard fault line and the fault status word the kernel reads
// while reporting it.
func (m *Machine) Fault(line irq.Line, status uint32) {
	m.lock.Acquire()
	m.faultStatus = status
	m.pending.PushBack(line)
	m.lock.Release()
}

// Pending returns the number of latched interrupts.
func (m *Machine) Pending() int {
	m.lock.Acquire()
	defer m.lock.Release()
	return m.pending.Len()
}

func (m *Machine) readFaultStatus() uint32 {
	m.lock.Acquire()
	defer m.lock.Release()
	return m.faultStatus
}

// takeIRQ acknowledges the oldest latched line. Nothing is delivered while
// the distributor is disabled.
func (m *Machine) takeIRQ() (irq.Line, bool) {
	if !m.pic {
		return 0, false
	}

	m.lock.Acquire()
	defer m.lock.Release()
	if m.pending.Len() == 0 {
		return 0, false
	}
	return m.pending.PopFront(), true
}
