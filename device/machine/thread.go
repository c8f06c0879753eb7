package machine

import (
	"runtime"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

var errExitReturned = &kernel.Error{Module: "machine", Message: "exit returned to its caller", Errno: kernel.EINVAL}

// Entry is a routine mapped into the code space with Register. arg is the
// value the kernel placed in R0 when the thread was first switched in.
type Entry func(th *Thread, arg uint32)

// wake is sent to a parked thread to give it the CPU. check asks the thread
// to verify that the exception return from mode lands where it left off.
type wake struct {
	check bool
	mode  cpu.Mode
}

// Thread is the CPU side of a kernel thread.
type Thread struct {
	m  *Machine
	id task.ThreadID

	// pc is the address of the next instruction. Each syscall advances
	// it by one instruction.
	pc uint32

	// resumeAt is where the thread expects to continue once it gets the
	// CPU back.
	resumeAt uint32

	// sp is the stack pointer the thread started with; the kernel must
	// hand it back unchanged.
	sp cpu.Register

	resume chan wake
}

// ID returns the kernel id of the thread.
func (th *Thread) ID() task.ThreadID {
	return th.id
}

// Machine returns the machine the thread runs on.
func (th *Thread) Machine() *Machine {
	return th.m
}

func (th *Thread) run(w wake) {
	m := th.m

	defer func() {
		if r := recover(); r != nil {
			th.halt(errorf("thread %s: %v", th.id, r))
		}
	}()

	th.resumed(w)

	ctx := m.vec.Context()
	th.sp = ctx[cpu.SP]
	entry := m.vec.Entry()
	fn, ok := m.code[entry]
	if !ok {
		th.halt(errorf("thread %s jumped to unmapped code at %x", th.id, entry))
	}

	th.pc = entry
	fn(th, uint32(ctx[cpu.R0]))

	// The trampoline turns a return from the entry routine into exit.
	th.Syscall(syscall.Exit)
	th.halt(errExitReturned)
}

// Spin burns cycles of CPU time. Interrupts latched meanwhile are taken at
// timer boundaries; time spent while other threads hold the CPU does not
// count.
func (th *Thread) Spin(cycles uint64) {
	m := th.m
	for {
		th.checkpoint()
		if cycles == 0 {
			return
		}

		step := m.untilNextEvent()
		if step > cycles {
			step = cycles
		}
		m.advance(step)
		cycles -= step
	}
}

// Syscall traps into the kernel with op and up to six arguments and returns
// the caller's bridge as published in R0 on return.
func (th *Thread) Syscall(op syscall.Op, args ...uint32) task.Bridge {
	m := th.m
	th.Spin(m.cfg.SyscallCycles)

	a := m.vec.Args()
	*a = [syscall.NumArgs]uint32{uint32(op)}
	copy(a[1:], args)

	ctx := m.vec.Context()
	ctx[cpu.PC] = cpu.Register(th.pc + cpu.InstructionWidth)
	th.resumeAt = th.pc + cpu.InstructionWidth

	m.transfer(th, m.vec.SVC(), cpu.SVC)
	th.pc += cpu.InstructionWidth

	b, err := task.LoadBridge(m.ram, mem.Addr(ctx[cpu.R0]))
	if err != nil || b.PID != th.id {
		th.halt(errorf("%s returned no bridge to thread %s (r0=%x)", op, th.id, ctx[cpu.R0]))
	}
	return b
}

// checkpoint hands the CPU back to RunFor once the run limit is reached and
// takes every latched interrupt.
func (th *Thread) checkpoint() {
	m := th.m
	for {
		if m.now >= m.limit {
			m.yield <- struct{}{}
			th.park()
			continue
		}

		line, ok := m.takeIRQ()
		if !ok {
			return
		}

		m.vec.Context()[cpu.PC] = cpu.Register(th.pc + cpu.InstructionWidth)
		th.resumeAt = th.pc
		m.transfer(th, m.vec.IRQ(line), cpu.IRQ)
	}
}

// park blocks until the thread gets the CPU back. A shut down machine ends
// the goroutine instead.
func (th *Thread) park() {
	select {
	case w := <-th.resume:
		th.resumed(w)
	case <-th.m.done:
		runtime.Goexit()
	}
}

func (th *Thread) resumed(w wake) {
	if !w.check {
		return
	}

	ctx := th.m.vec.Context()
	if got := cpu.ResumeAddr(w.mode, ctx[cpu.PC]); uint32(got) != th.resumeAt {
		th.halt(errorf("thread %s resumed at %x from %s; expected %x", th.id, got, w.mode, th.resumeAt))
	}
	if th.sp != 0 && ctx[cpu.SP] != th.sp {
		th.halt(errorf("thread %s resumed with sp=%x; expected %x", th.id, ctx[cpu.SP], th.sp))
	}
}

// halt stops the machine, returns control to RunFor and ends the goroutine.
func (th *Thread) halt(err *kernel.Error) {
	m := th.m
	if err != nil && err.Module == "machine" {
		kfmt.Errorf("%s", err.Message)
	}
	m.stop(err)
	m.yield <- struct{}{}
	<-m.done
	runtime.Goexit()
}
