package machine

import (
	"io"

	"github.com/fkuzume/beep8-sdk-sub000/device"
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
)

var (
	errNoRAM   = &kernel.Error{Module: "ram", Message: "no memory installed", Errno: kernel.ENOMEM}
	errNoClock = &kernel.Error{Module: "dwt", Message: "core clock not set", Errno: kernel.EINVAL}
)

type ramDriver struct{ m *Machine }

func (d *ramDriver) DriverName() string { return "ram" }

func (d *ramDriver) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

func (d *ramDriver) DriverInit(w io.Writer) *kernel.Error {
	size := d.m.ram.Size()
	if size == 0 {
		return errNoRAM
	}
	kfmt.Fprintf(w, "%dK at 0x%x\n", uint64(size)>>10, uint32(d.m.ram.Base))
	return nil
}

type counterDriver struct{ m *Machine }

func (d *counterDriver) DriverName() string { return "dwt" }

func (d *counterDriver) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

func (d *counterDriver) DriverInit(w io.Writer) *kernel.Error {
	if d.m.cfg.CPUHz == 0 {
		return errNoClock
	}
	d.m.counterOn = false
	kfmt.Fprintf(w, "cycle counter @ %d Hz\n", d.m.cfg.CPUHz)
	return nil
}

type timerDriver struct{ m *Machine }

func (d *timerDriver) DriverName() string { return "timer" }

func (d *timerDriver) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

func (d *timerDriver) DriverInit(w io.Writer) *kernel.Error {
	for i := range d.m.timers {
		if d.m.timers[i].line == irq.VBlank {
			continue
		}
		d.m.timers[i].period = 0
	}
	kfmt.Fprintf(w, "%d channels\n", numTimers-1)
	return nil
}

type picDriver struct{ m *Machine }

func (d *picDriver) DriverName() string { return "pic" }

func (d *picDriver) DriverVersion() (uint16, uint16, uint16) { return 1, 0, 0 }

// DriverInit masks the distributor; the kernel enables it once boot is done.
func (d *picDriver) DriverInit(w io.Writer) *kernel.Error {
	d.m.pic = false
	kfmt.Fprintf(w, "%d lines, %d pending\n", irq.Count, d.m.Pending())
	return nil
}

// Drivers returns the on-board devices in no particular order.
func (m *Machine) Drivers() device.DriverInfoList {
	return device.DriverInfoList{
		{Order: device.DetectOrderTimers, Probe: func() device.Driver { return &timerDriver{m} }},
		{Order: device.DetectOrderLast, Probe: func() device.Driver { return &picDriver{m} }},
		{Order: device.DetectOrderMemory, Probe: func() device.Driver { return &ramDriver{m} }},
		{Order: device.DetectOrderCounter, Probe: func() device.Driver { return &counterDriver{m} }},
	}
}
