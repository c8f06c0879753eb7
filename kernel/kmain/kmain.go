package kmain

import (
	"bytes"
	"sort"

	"github.com/fkuzume/beep8-sdk-sub000/device"
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/arch"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sched"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/trace"
	"github.com/fkuzume/beep8-sdk-sub000/ulib"
)

var (
	errNoApp       = &kernel.Error{Module: "kmain", Message: "no main routine", Errno: kernel.EINVAL}
	errRAMTooSmall = &kernel.Error{Module: "kmain", Message: "stack region does not leave room for the heap", Errno: kernel.ENOMEM}
)

// Config selects how RAM is split and how the kernel is tuned.
type Config struct {
	// StackRegion is the size of the thread stack region at the start of
	// RAM. The rest of RAM is the user heap.
	StackRegion mem.Size

	UsecPerTick uint32

	// TraceDepth is the number of switch events kept. A negative depth
	// disables tracing.
	TraceDepth int
}

// DefaultConfig returns a 64K stack region, a 10ms tick and a trace of
// trace.DefaultDepth events.
func DefaultConfig() Config {
	return Config{
		StackRegion: 64 * mem.Kb,
		UsecPerTick: 10000,
		TraceDepth:  trace.DefaultDepth,
	}
}

// Kernel is a booted kernel image. It serves the machine trap vectors.
type Kernel struct {
	Sched *sched.Scheduler
	Sys   *syscall.Dispatcher
	Trace *trace.Recorder
	Heap  *ulib.Heap

	heapSem sem.ID
}

// Context returns the live user register file.
func (k *Kernel) Context() *cpu.Context { return k.Sched.Context() }

// Args returns the syscall argument array.
func (k *Kernel) Args() *[syscall.NumArgs]uint32 { return &k.Sys.Args }

// SVC is the supervisor call vector.
func (k *Kernel) SVC() cpu.Transfer { return k.Sys.Trap() }

// IRQ is the interrupt vector.
func (k *Kernel) IRQ(line irq.Line) cpu.Transfer { return k.Sched.IRQ(line) }

// Entry returns the start routine of the current thread.
func (k *Kernel) Entry() uint32 { return k.Sched.Entry() }

// Kmain brings up the devices of m, boots the kernel with app as the body of
// the main thread and attaches the trap vectors. The main thread starts on
// the first timer tick once the machine runs.
func Kmain(m *machine.Machine, cfg Config, app machine.Entry) (*Kernel, *kernel.Error) {
	if app == nil {
		return nil, errNoApp
	}

	ram := m.RAM()
	if cfg.StackRegion >= ram.Size() {
		return nil, errRAMTooSmall
	}

	k := &Kernel{Sched: &sched.Scheduler{}}
	k.Sys = syscall.New(k.Sched)
	if cfg.TraceDepth >= 0 {
		k.Trace = trace.NewRecorder(cfg.TraceDepth)
		k.Sched.SetTracer(k.Trace)
	}
	k.Heap = ulib.NewHeap(&k.heapSem, ram.Base+mem.Addr(cfg.StackRegion), ram.Size()-cfg.StackRegion)

	probe(m.Drivers())

	if err := k.Sched.Boot(arch.Config{
		Memory:          ram,
		StackBase:       ram.Base,
		StackSize:       cfg.StackRegion,
		CPUHz:           m.CPUHz(),
		UsecPerTick:     cfg.UsecPerTick,
		HeapSem:         &k.heapSem,
		EntryTrampoline: m.Trampoline(),
		IdleEntry:       m.Register(ulib.Idle),
		MainEntry:       m.Register(ulib.Main(k.Heap, app)),
		Callbacks:       m.Callbacks(),
	}); err != nil {
		return nil, err
	}

	m.Attach(k)
	return k, nil
}

// probe initializes each device in detection order. Devices that fail to
// initialize are reported and skipped.
func probe(drivers device.DriverInfoList) {
	var (
		w      = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}
		strBuf bytes.Buffer
	)

	sort.Sort(drivers)
	for _, info := range drivers {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
	}
}
