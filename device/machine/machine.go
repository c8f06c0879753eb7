// Package machine simulates the console the kernel runs on: RAM, a free
// running cycle counter, four periodic timers, the vertical blank generator,
// the interrupt controller and the CPU core itself.
//
// User threads are Go functions. Exactly one of them holds the CPU at any
// time; it consumes cycles with Spin and enters the kernel only through
// Syscall or by taking a pending interrupt at a Spin boundary. The kernel is
// reached through the Vectors it registered with Attach and answers every
// trap with a cpu.Transfer which the machine carries out by handing the CPU
// to the selected thread.
package machine

import (
	"fmt"

	"github.com/gammazero/deque"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/arch"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sync"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// Defaults used by DefaultConfig.
const (
	DefaultCPUHz                  = 4000000
	DefaultRAMBase       mem.Addr = 0x100000
	DefaultRAMSize       mem.Size = 0x20000
	DefaultWallClockMs            = 1700000000000
	DefaultSyscallCycles          = 100
)

const (
	// codeBase is the address of the entry trampoline; registered entry
	// routines follow it codeStride bytes apart.
	codeBase   = 0x8000
	codeStride = 0x100
)

var (
	errNoVectors = &kernel.Error{Module: "machine", Message: "no kernel attached", Errno: kernel.EINVAL}
	errShutdown  = &kernel.Error{Module: "machine", Message: "machine is shut down", Errno: kernel.EINVAL}
	errNotTimer  = &kernel.Error{Module: "machine", Message: "line has no timer", Errno: kernel.EINVAL}
	errBadRate   = &kernel.Error{Module: "machine", Message: "timer rate out of range", Errno: kernel.EINVAL}
)

func errorf(format string, args ...interface{}) *kernel.Error {
	return &kernel.Error{Module: "machine", Message: fmt.Sprintf(format, args...), Errno: kernel.EINVAL}
}

// Config describes the simulated hardware.
type Config struct {
	CPUHz uint32

	RAMBase mem.Addr
	RAMSize mem.Size

	// WallClockMs is the real time clock at power on, in milliseconds
	// since the epoch.
	WallClockMs uint64

	// SyscallCycles is the cost of issuing a supervisor call.
	SyscallCycles uint64
}

// DefaultConfig returns the configuration of the stock console.
func DefaultConfig() Config {
	return Config{
		CPUHz:         DefaultCPUHz,
		RAMBase:       DefaultRAMBase,
		RAMSize:       DefaultRAMSize,
		WallClockMs:   DefaultWallClockMs,
		SyscallCycles: DefaultSyscallCycles,
	}
}

// Vectors is the kernel side of the trap interface.
type Vectors interface {
	// Context returns the live user register file. The machine writes
	// the trap return address to it; the kernel leaves the registers of
	// the thread to resume in it.
	Context() *cpu.Context

	// Args returns the shared syscall argument array.
	Args() *[syscall.NumArgs]uint32

	// SVC handles a supervisor call.
	SVC() cpu.Transfer

	// IRQ handles the acknowledged interrupt line.
	IRQ(line irq.Line) cpu.Transfer

	// Entry returns the start routine of the current thread. The entry
	// trampoline jumps to it.
	Entry() uint32
}

// Machine is a simulated console.
type Machine struct {
	cfg Config
	ram *mem.Region
	vec Vectors

	// now counts cycles since power on. The cycle counter reads the
	// distance from counterBase.
	now         uint64
	counterBase uint64
	counterOn   bool

	timers [numTimers]timer
	pic    bool

	// lock guards pending and faultStatus, both written by Raise and
	// Fault from any goroutine.
	lock        sync.Spinlock
	pending     *deque.Deque[irq.Line]
	faultStatus uint32

	code     map[uint32]Entry
	nextCode uint32

	threads map[task.ThreadID]*Thread
	running *Thread

	limit  uint64
	yield  chan struct{}
	done   chan struct{}
	closed bool
	halted *kernel.Error
}

// New returns a powered-off machine.
func New(cfg Config) *Machine {
	m := &Machine{
		cfg:      cfg,
		ram:      mem.NewRegion(cfg.RAMBase, cfg.RAMSize),
		pending:  deque.New[irq.Line](),
		code:     make(map[uint32]Entry),
		nextCode: codeBase + codeStride,
		threads:  make(map[task.ThreadID]*Thread),
		yield:    make(chan struct{}),
		done:     make(chan struct{}),
	}

	for i := range m.timers {
		m.timers[i].line = timerLines[i]
	}
	return m
}

// Attach connects the kernel trap vectors.
func (m *Machine) Attach(vec Vectors) {
	m.vec = vec
}

// RAM returns the machine memory.
func (m *Machine) RAM() *mem.Region {
	return m.ram
}

// CPUHz returns the core clock rate.
func (m *Machine) CPUHz() uint32 {
	return m.cfg.CPUHz
}

// Now returns the number of cycles since power on.
func (m *Machine) Now() uint64 {
	return m.now
}

// Trampoline returns the address of the entry trampoline every new thread
// starts at.
func (m *Machine) Trampoline() uint32 {
	return codeBase
}

// Register maps fn into the code space and returns its entry address.
func (m *Machine) Register(fn Entry) uint32 {
	addr := m.nextCode
	m.nextCode += codeStride
	m.code[addr] = fn
	return addr
}

// Thread returns the thread running as id, or nil if id never ran.
func (m *Machine) Thread(id task.ThreadID) *Thread {
	return m.threads[id]
}

// Halted returns the error that stopped the machine, if any.
func (m *Machine) Halted() *kernel.Error {
	return m.halted
}

// Callbacks returns the port callbacks the kernel boots with.
func (m *Machine) Callbacks() arch.Callbacks {
	return arch.Callbacks{
		TimerIRQ: func() (irq.Line, error) {
			return irq.Timer0, nil
		},
		StartTimer: func(hz uint32) error {
			if err := m.StartTimer(irq.Timer0, hz); err != nil {
				return err
			}
			return nil
		},
		StartCycleCounter: func() error {
			m.counterOn = true
			m.counterBase = m.now
			return nil
		},
		ReadCycles:         m.readCycles,
		ReadAndClearCycles: m.readAndClearCycles,
		Distributor: func(enable bool) {
			m.pic = enable
		},
		WallClock:   m.wallClock,
		FaultStatus: m.readFaultStatus,
	}
}

func (m *Machine) readCycles() uint32 {
	if !m.counterOn {
		return 0
	}
	return uint32(m.now - m.counterBase)
}

func (m *Machine) readAndClearCycles() uint32 {
	c := m.readCycles()
	m.counterBase = m.now
	return c
}

func (m *Machine) wallClock() uint64 {
	return m.cfg.WallClockMs + m.now*1000/uint64(m.cfg.CPUHz)
}

// RunFor runs the machine until another cycles cycles have elapsed or it
// halts. It returns the halt reason.
func (m *Machine) RunFor(cycles uint64) *kernel.Error {
	switch {
	case m.closed:
		return errShutdown
	case m.vec == nil:
		return errNoVectors
	case m.halted != nil:
		return m.halted
	}

	m.limit = m.now + cycles
	if m.running != nil {
		m.running.resume <- wake{}
	} else if !m.bootSpin() {
		return m.halted
	}

	<-m.yield
	return m.halted
}

// bootSpin runs the power-on context until the kernel switches to a thread.
// The boot context is never saved so the kernel cannot return to it.
func (m *Machine) bootSpin() bool {
	for m.now < m.limit {
		line, ok := m.takeIRQ()
		if !ok {
			m.advance(m.untilNextEvent())
			continue
		}

		tr := m.vec.IRQ(line)
		switch tr.Kind {
		case cpu.Halt:
			m.stop(tr.Err)
			return false
		case cpu.Switch:
			m.handTo(task.ThreadID(tr.To), wake{check: true, mode: cpu.IRQ})
			return true
		}
	}
	return false
}

// Shutdown releases every parked thread. The machine cannot run afterwards.
func (m *Machine) Shutdown() {
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
}

func (m *Machine) stop(err *kernel.Error) {
	if err == nil {
		err = errorf("halt without reason")
	}
	m.halted = err
	m.running = nil
}

// handTo gives the CPU to thread id, starting it if it never ran.
func (m *Machine) handTo(id task.ThreadID, w wake) {
	if th, ok := m.threads[id]; ok {
		m.running = th
		th.resume <- w
		return
	}

	th := &Thread{
		m:        m,
		id:       id,
		resumeAt: m.Trampoline(),
		resume:   make(chan wake),
	}
	m.threads[id] = th
	m.running = th
	kfmt.Debugf("machine: start thread %s", id)
	go th.run(w)
}

// transfer carries out the outcome of a trap taken by th from mode.
func (m *Machine) transfer(th *Thread, tr cpu.Transfer, mode cpu.Mode) {
	w := wake{check: true, mode: mode}

	switch tr.Kind {
	case cpu.Continue:
		th.resumed(w)
	case cpu.Halt:
		th.halt(tr.Err)
	case cpu.Switch:
		if to := task.ThreadID(tr.To); to != th.id {
			m.handTo(to, w)
			th.park()
			return
		}
		th.resumed(w)
	default:
		th.halt(errorf("unknown transfer kind %d", tr.Kind))
	}
}
