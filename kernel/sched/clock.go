package sched

import "github.com/fkuzume/beep8-sdk-sub000/kernel"

// Clock identifies a clock exposed through the clock syscalls.
type Clock uint32

// Clock ids.
const (
	Realtime   Clock = 0x10
	Monotonic  Clock = 0x11
	ProcessCPU Clock = 0x12
	ThreadCPU  Clock = 0x13
)

const nsPerSec = 1000000000

var (
	errClockNotSupported = &kernel.Error{Module: "sched", Message: "cpu time clocks are not supported", Errno: kernel.EOPNOTSUPP}
	errBadClockID        = &kernel.Error{Module: "sched", Message: "unknown clock", Errno: kernel.EINVAL}
)

func checkClock(c Clock) *kernel.Error {
	switch c {
	case Realtime, Monotonic:
		return nil
	case ProcessCPU, ThreadCPU:
		return errClockNotSupported
	default:
		return errBadClockID
	}
}

// Timespec is a clock reading.
type Timespec struct {
	Sec  uint64
	Nsec uint32
}

// Micros returns t in microseconds.
func (t Timespec) Micros() uint64 {
	return t.Sec*1000000 + uint64(t.Nsec)/1000
}

// ClockRes returns the resolution of clock c, one CPU cycle.
func (s *Scheduler) ClockRes(c Clock) (Timespec, *kernel.Error) {
	if err := checkClock(c); err != nil {
		return Timespec{}, err
	}
	return Timespec{Nsec: s.resolutionNs}, nil
}

// ClockTime reads clock c. Both clocks count CPU cycles since boot; the
// realtime clock adds the wall clock sampled at boot.
func (s *Scheduler) ClockTime(c Clock) (Timespec, *kernel.Error) {
	if err := checkClock(c); err != nil {
		return Timespec{}, err
	}

	var base uint64
	if c == Realtime {
		base = s.epochCycles
	}

	hz := uint64(s.cfg.CPUHz)
	cur := base + s.cycles + uint64(s.cfg.ReadCycles())
	return Timespec{
		Sec:  cur / hz,
		Nsec: uint32((cur % hz) * nsPerSec / hz),
	}, nil
}

// Realtime returns the realtime clock in microseconds as seen by semaphore
// timeouts.
func (s *Scheduler) Realtime() uint64 {
	return s.epochUs + s.elapsed
}
