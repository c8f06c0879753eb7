package sched

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/arch"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/list"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// DefaultTickHz is the system timer rate used when the configuration leaves
// UsecPerTick unset.
const DefaultTickHz = 100

// portError converts an error returned by a port callback.
func portError(err error) *kernel.Error {
	if kerr, ok := err.(*kernel.Error); ok {
		return kerr
	}
	return &kernel.Error{Module: "arch", Message: err.Error(), Errno: kernel.EINVAL}
}

// Boot initializes the kernel state from cfg, creates the idle and main
// threads, and starts the system timer. The first timer interrupt switches to
// the main thread.
func (s *Scheduler) Boot(cfg arch.Config) (err *kernel.Error) {
	if err = cfg.Validate(); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(*kfmt.Halt)
			if !ok {
				panic(r)
			}
			s.running = false
			err = h.Err
		}
	}()

	s.running = false
	s.mode = cpu.SVC
	s.cycles = 0

	line, perr := cfg.TimerIRQ()
	if perr != nil {
		return portError(perr)
	}
	s.timerLine = line

	kfmt.Infof("CPU:%d Hz", cfg.CPUHz)

	s.usPerCycleFixed8 = uint64(256*1000000) / uint64(cfg.CPUHz)
	s.resolutionNs = uint32(uint64(nsPerSec) / uint64(cfg.CPUHz))
	kfmt.Assert(s.resolutionNs >= 1, "sched", "Not support 1GHz")

	s.irqs.Reset()
	s.irqs.FaultStatusFn = cfg.FaultStatus

	s.ctx = cpu.Context{}
	s.cfg = cfg

	hz := uint64(cfg.CPUHz)
	s.epochMs = cfg.WallClock()
	s.epochUs = s.epochMs * 1000
	s.epochCycles = (s.epochMs/1000)*hz + (s.epochMs%1000)*hz/1000

	s.stacks = mem.NewStackAllocator(cfg.StackBase, cfg.StackSize)

	s.tasks.Reset()
	s.sems.Reset()
	s.heap.Reset()

	s.ready = list.New(&s.heap, task.Capacity)
	s.waiting = list.New(&s.heap, task.Capacity)
	s.zombie = list.New(&s.heap, task.Capacity)

	s.elapsed = 0
	if perr = cfg.StartCycleCounter(); perr != nil {
		return portError(perr)
	}

	if s.policy == nil {
		s.policy = &CounterPolicy{}
	}

	if s.idle, err = s.CreateThread(ThreadParams{
		StackSize: arch.IdleStackSize,
		Start:     cfg.IdleEntry,
		Class:     task.RR,
		IRQ:       irq.None,
	}); err != nil {
		return err
	}
	s.current = s.idle

	if _, err = s.CreateThread(ThreadParams{
		StackSize: arch.MainStackSize,
		Start:     cfg.MainEntry,
		Class:     task.RR,
		IRQ:       irq.None,
	}); err != nil {
		return err
	}

	kfmt.Infof("b8os heap:%x", uint32(s.heap.Used()))

	if err = s.irqs.Attach(s.timerLine, s.dispatch, nil); err != nil {
		return err
	}

	tickHz := uint32(DefaultTickHz)
	if cfg.UsecPerTick != 0 && cfg.UsecPerTick <= 1000000 {
		tickHz = 1000000 / cfg.UsecPerTick
	}
	if perr = cfg.StartTimer(tickHz); perr != nil {
		return portError(perr)
	}

	cfg.Distributor(true)
	s.running = true
	return nil
}
