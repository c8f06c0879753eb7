package ulib

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sched"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
)

// ClockRes returns the resolution of clock c.
func ClockRes(th *machine.Thread, c sched.Clock) (sched.Timespec, error) {
	return clock(th, syscall.ClockGetRes, c)
}

// ClockTime reads clock c.
func ClockTime(th *machine.Thread, c sched.Clock) (sched.Timespec, error) {
	return clock(th, syscall.ClockGetTime, c)
}

// SetClockTime always fails with EPERM.
func SetClockTime(th *machine.Thread, c sched.Clock, ts sched.Timespec) error {
	return th.Syscall(syscall.ClockSetTime, uint32(c), uint32(ts.Sec), ts.Nsec).Err()
}

func clock(th *machine.Thread, op syscall.Op, c sched.Clock) (sched.Timespec, error) {
	b := th.Syscall(op, uint32(c))
	if err := b.Err(); err != nil {
		return sched.Timespec{}, err
	}
	return sched.Timespec{Sec: b.TvSec, Nsec: b.TvNsec}, nil
}

// After returns the realtime instant us microseconds from now, for use as a
// TimedWait deadline.
func After(th *machine.Thread, us uint64) (sched.Timespec, error) {
	now, err := ClockTime(th, sched.Realtime)
	if err != nil {
		return now, err
	}

	t := now.Micros() + us
	return sched.Timespec{Sec: t / 1000000, Nsec: uint32(t%1000000) * 1000}, nil
}
