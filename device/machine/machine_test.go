package machine

import (
	"bytes"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

const testThread = task.ThreadID(1<<16 | 1)

var errTest = &kernel.Error{Module: "test", Message: "stop", Errno: kernel.EINVAL}

// fakeKernel runs a single thread and records every trap.
type fakeKernel struct {
	m     *Machine
	ctx   cpu.Context
	args  [syscall.NumArgs]uint32
	entry uint32

	bridgeAt mem.Addr
	started  bool

	// startPC overrides the return address of the first switch.
	startPC cpu.Register

	svcs []syscall.Op
	irqs []irq.Line
}

func newFake(t *testing.T, body Entry) (*Machine, *fakeKernel) {
	m := New(DefaultConfig())
	k := &fakeKernel{m: m, bridgeAt: m.RAM().Base + 0x1000}
	k.startPC = cpu.Register(m.Trampoline() + cpu.InstructionWidth)

	b := task.NewBridge(testThread)
	if err := b.Store(m.RAM(), k.bridgeAt); err != nil {
		t.Fatal(err)
	}

	k.entry = m.Register(body)
	m.Attach(k)
	m.Callbacks().Distributor(true)
	if err := m.StartTimer(irq.Timer0, 1000); err != nil {
		t.Fatal(err)
	}
	return m, k
}

func (k *fakeKernel) Context() *cpu.Context { return &k.ctx }

func (k *fakeKernel) Args() *[syscall.NumArgs]uint32 { return &k.args }

func (k *fakeKernel) Entry() uint32 { return k.entry }

func (k *fakeKernel) SVC() cpu.Transfer {
	op := syscall.Op(k.args[0])
	k.svcs = append(k.svcs, op)
	if op == syscall.Exit {
		return cpu.HaltTransfer(errTest)
	}
	k.ctx[cpu.R0] = cpu.Register(k.bridgeAt)
	return cpu.ContinueTransfer()
}

func (k *fakeKernel) IRQ(line irq.Line) cpu.Transfer {
	k.irqs = append(k.irqs, line)
	if k.started {
		return cpu.ContinueTransfer()
	}

	k.started = true
	k.ctx = cpu.Context{}
	k.ctx[cpu.R0] = 42
	k.ctx[cpu.SP] = cpu.Register(k.bridgeAt)
	k.ctx[cpu.PC] = k.startPC
	return cpu.SwitchTransfer(uint32(testThread))
}

func TestRunThread(t *testing.T) {
	var got []uint32
	m, k := newFake(t, func(th *Thread, arg uint32) {
		got = append(got, arg)
		for i := 0; i < 3; i++ {
			b := th.Syscall(syscall.Null)
			got = append(got, uint32(b.PID))
		}
	})
	defer m.Shutdown()

	if err := m.RunFor(1 << 20); err != errTest {
		t.Fatalf("expected the exit trap to halt the machine; got %v", err)
	}

	exp := []uint32{42, uint32(testThread), uint32(testThread), uint32(testThread)}
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("expected %v; got %v", exp, got)
	}

	expOps := []syscall.Op{syscall.Null, syscall.Null, syscall.Null, syscall.Exit}
	if !reflect.DeepEqual(k.svcs, expOps) {
		t.Fatalf("expected syscalls %v; got %v", expOps, k.svcs)
	}

	if th := m.Thread(testThread); th == nil || th.ID() != testThread || th.Machine() != m {
		t.Fatal("expected the machine to track the started thread")
	}
	if err := m.RunFor(100); err != errTest {
		t.Fatalf("expected a halted machine to stay halted; got %v", err)
	}
}

func TestRunForLimit(t *testing.T) {
	m, k := newFake(t, func(th *Thread, _ uint32) {
		for {
			th.Spin(1000)
		}
	})
	defer m.Shutdown()

	// The timer runs at 1kHz, every 4000 cycles.
	if err := m.RunFor(10000); err != nil {
		t.Fatal(err)
	}
	if m.Now() != 10000 || len(k.irqs) != 2 {
		t.Fatalf("expected 2 interrupts by cycle 10000; got %d by cycle %d", len(k.irqs), m.Now())
	}

	if err := m.RunFor(10000); err != nil {
		t.Fatal(err)
	}
	if m.Now() != 20000 || len(k.irqs) != 4 {
		t.Fatalf("expected 4 interrupts by cycle 20000; got %d by cycle %d", len(k.irqs), m.Now())
	}
	if m.Pending() != 1 {
		t.Fatalf("expected the interrupt latched at the limit to stay pending; got %d", m.Pending())
	}
}

func TestResumeAddressChecked(t *testing.T) {
	m, k := newFake(t, func(th *Thread, _ uint32) {
		t.Error("expected the thread not to run")
	})
	defer m.Shutdown()

	// An interrupt return subtracts one instruction; a context that was
	// not adjusted for it resumes one instruction early.
	k.startPC = cpu.Register(m.Trampoline())

	err := m.RunFor(1 << 20)
	if err == nil || !strings.Contains(err.Message, "resumed at") {
		t.Fatalf("expected a resume address error; got %v", err)
	}
}

func TestThreadPanicHalts(t *testing.T) {
	m, _ := newFake(t, func(th *Thread, _ uint32) {
		panic("boom")
	})
	defer m.Shutdown()

	err := m.RunFor(1 << 20)
	if err == nil || !strings.Contains(err.Message, "boom") {
		t.Fatalf("expected the panic to halt the machine; got %v", err)
	}
}

func TestBootContextHalt(t *testing.T) {
	m := New(DefaultConfig())
	defer m.Shutdown()

	if err := m.RunFor(100); err != errNoVectors {
		t.Fatalf("expected %v; got %v", errNoVectors, err)
	}

	k := &haltingKernel{}
	m.Attach(k)
	m.Callbacks().Distributor(true)
	m.Raise(irq.Audio)

	if err := m.RunFor(100); err != errTest {
		t.Fatalf("expected %v; got %v", errTest, err)
	}
	if m.Halted() != errTest {
		t.Fatalf("expected Halted to report %v; got %v", errTest, m.Halted())
	}

	m.Shutdown()
	if err := m.RunFor(100); err != errShutdown {
		t.Fatalf("expected %v; got %v", errShutdown, err)
	}
}

type haltingKernel struct {
	fakeKernel
}

func (k *haltingKernel) IRQ(irq.Line) cpu.Transfer {
	return cpu.HaltTransfer(errTest)
}

func TestCycleCounter(t *testing.T) {
	m := New(DefaultConfig())
	cb := m.Callbacks()

	m.advance(500)
	if got := cb.ReadCycles(); got != 0 {
		t.Fatalf("expected a stopped counter to read 0; got %d", got)
	}

	if err := cb.StartCycleCounter(); err != nil {
		t.Fatal(err)
	}
	m.advance(1234)
	if got := cb.ReadCycles(); got != 1234 {
		t.Fatalf("expected 1234 cycles; got %d", got)
	}
	if got := cb.ReadAndClearCycles(); got != 1234 {
		t.Fatalf("expected 1234 cycles; got %d", got)
	}
	if got := cb.ReadCycles(); got != 0 {
		t.Fatalf("expected a cleared counter; got %d", got)
	}

	m.advance(DefaultCPUHz - 1734)
	if got := cb.WallClock(); got != DefaultWallClockMs+1000 {
		t.Fatalf("expected the wall clock one second after power on; got %d", got)
	}

	if line, err := cb.TimerIRQ(); err != nil || line != irq.Timer0 {
		t.Fatalf("expected timer line %d; got %d (%v)", irq.Timer0, line, err)
	}
}

func TestTimersAndController(t *testing.T) {
	m := New(DefaultConfig())

	specs := []struct {
		line   irq.Line
		hz     uint32
		expErr *kernel.Error
	}{
		{irq.Audio, 100, errNotTimer},
		{irq.Timer1, DefaultCPUHz + 1, errBadRate},
		{irq.Timer1, 0, nil},
		{irq.Timer0, 100, nil},
		{irq.VBlank, 50, nil},
	}

	for specIndex, spec := range specs {
		if err := m.StartTimer(spec.line, spec.hz); err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
	}

	if err := m.Callbacks().StartTimer(DefaultCPUHz * 2); err == nil {
		t.Fatal("expected an out of range rate through the kernel callback to fail")
	}
	if err := m.Callbacks().StartTimer(100); err != nil {
		t.Fatal(err)
	}

	// 100Hz is 40000 cycles, 50Hz is 80000.
	m.advance(80000)
	m.Raise(irq.Audio)
	m.Fault(irq.DataAbort, 0x805)

	if _, ok := m.takeIRQ(); ok {
		t.Fatal("expected nothing to be delivered with the distributor off")
	}

	m.Callbacks().Distributor(true)
	var got []irq.Line
	for {
		line, ok := m.takeIRQ()
		if !ok {
			break
		}
		got = append(got, line)
	}

	exp := []irq.Line{irq.Timer0, irq.Timer0, irq.VBlank, irq.Audio, irq.DataAbort}
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("expected %v; got %v", exp, got)
	}
	if status := m.Callbacks().FaultStatus(); status != 0x805 {
		t.Fatalf("expected fault status 0x805; got %x", status)
	}
}

func TestDrivers(t *testing.T) {
	m := New(DefaultConfig())
	m.pic = true

	list := m.Drivers()
	sort.Sort(list)

	var (
		buf   bytes.Buffer
		names []string
	)
	for _, info := range list {
		drv := info.Probe()
		names = append(names, drv.DriverName())
		if err := drv.DriverInit(&buf); err != nil {
			t.Fatalf("%s: %v", drv.DriverName(), err)
		}
	}

	if exp := []string{"ram", "dwt", "timer", "pic"}; !reflect.DeepEqual(names, exp) {
		t.Fatalf("expected probe order %v; got %v", exp, names)
	}
	if !strings.Contains(buf.String(), "128K at 0x100000") {
		t.Fatalf("expected the ram size in the init output; got %q", buf.String())
	}
	if m.pic {
		t.Fatal("expected the pic driver to mask the distributor")
	}

	m.cfg.CPUHz = 0
	if err := (&counterDriver{m}).DriverInit(&buf); err != errNoClock {
		t.Fatalf("expected %v; got %v", errNoClock, err)
	}
}
