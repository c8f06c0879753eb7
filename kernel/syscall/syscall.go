// Package syscall implements the supervisor call dispatcher. User code stores
// an operation code and up to six arguments in the shared argument array and
// traps; Trap runs the matching handler against the kernel state.
package syscall

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/cpu"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sched"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// Op is a syscall operation code.
type Op uint32

// Operation codes. The numbering is part of the user ABI.
const (
	Null Op = iota
	GetBridge
	Yield
	Sleep
	ThreadCreate
	Exit
	SetErrno
	GetErrno
	SemInit
	SemPost
	SemWait
	SemGetValue
	ClockGetRes
	ClockGetTime
	ClockSetTime

	opMax
)

var opNames = [opMax]string{
	"null", "get_bridge", "yield", "sleep", "thread_create", "exit",
	"set_errno", "get_errno", "sem_init", "sem_post", "sem_wait",
	"sem_getvalue", "clock_getres", "clock_gettime", "clock_settime",
}

func (op Op) String() string {
	if op < opMax {
		return opNames[op]
	}
	return "invalid"
}

// NumArgs is the size of the shared argument array: the operation code
// followed by six arguments.
const NumArgs = 7

// MinStackSize is the smallest stack thread_create accepts.
const MinStackSize = 0x200

type handler func(d *Dispatcher) cpu.Transfer

// Dispatcher routes supervisor calls to the kernel.
type Dispatcher struct {
	// Args is written by user code before it traps.
	Args [NumArgs]uint32

	k     *sched.Scheduler
	table [opMax]handler
}

// New returns a dispatcher serving calls against k.
func New(k *sched.Scheduler) *Dispatcher {
	return &Dispatcher{
		k: k,
		table: [opMax]handler{
			Null:         sysNull,
			GetBridge:    sysNull,
			Yield:        sysYield,
			Sleep:        sysSleep,
			ThreadCreate: sysThreadCreate,
			Exit:         sysExit,
			SetErrno:     sysSetErrno,
			GetErrno:     sysNull,
			SemInit:      sysSemInit,
			SemPost:      sysSemPost,
			SemWait:      sysSemWait,
			SemGetValue:  sysSemGetValue,
			ClockGetRes:  sysClockGetRes,
			ClockGetTime: sysClockGetTime,
			ClockSetTime: sysClockSetTime,
		},
	}
}

// Trap is the supervisor call entry point.
func (d *Dispatcher) Trap() cpu.Transfer {
	return d.k.Enter(cpu.SVC, d.dispatch)
}

func (d *Dispatcher) dispatch() cpu.Transfer {
	// Every call, valid or not, hands the caller its bridge.
	d.k.GiveBridge()

	op := Op(d.Args[0])
	if op >= opMax {
		d.k.SetError(kernel.EINVAL)
		return cpu.ContinueTransfer()
	}
	return d.table[op](d)
}

func (d *Dispatcher) fail(err *kernel.Error) cpu.Transfer {
	d.k.SetError(err.Errno)
	return cpu.ContinueTransfer()
}

func sysNull(*Dispatcher) cpu.Transfer {
	return cpu.ContinueTransfer()
}

func sysYield(d *Dispatcher) cpu.Transfer {
	return d.k.Yield()
}

func sysSleep(d *Dispatcher) cpu.Transfer {
	us := uint64(d.Args[1])<<32 | uint64(d.Args[2])
	return d.k.Sleep(us)
}

func sysThreadCreate(d *Dispatcher) cpu.Transfer {
	size := d.Args[2]
	if size < MinStackSize {
		d.k.SetError(kernel.EINVAL)
		return cpu.ContinueTransfer()
	}

	id, err := d.k.CreateThread(sched.ThreadParams{
		StackAddr: mem.Addr(d.Args[1]),
		StackSize: mem.Size(size),
		Start:     d.Args[3],
		Arg:       d.Args[4],
		Class:     task.Class(d.Args[5]),
		IRQ:       irq.Line(d.Args[6]),
	})
	if err != nil {
		d.k.SetError(err.Errno)
	} else {
		d.k.SetError(0)
	}

	d.k.UpdateBridge(func(b *task.Bridge) {
		b.RetPID = id
	})
	return cpu.ContinueTransfer()
}

func sysExit(d *Dispatcher) cpu.Transfer {
	return d.k.Exit()
}

func sysSetErrno(d *Dispatcher) cpu.Transfer {
	// User code passes the negated error number.
	code := int32(d.Args[1])
	if code > 0 {
		d.k.SetError(kernel.EINVAL)
		return cpu.ContinueTransfer()
	}
	d.k.SetErrno(kernel.ErrnoFromCode(code))
	return cpu.ContinueTransfer()
}

func sysSemInit(d *Dispatcher) cpu.Transfer {
	id := d.k.SemInit(d.Args[2])
	d.k.UpdateBridge(func(b *task.Bridge) {
		b.RetSID = id
	})
	return cpu.ContinueTransfer()
}

func sysSemPost(d *Dispatcher) cpu.Transfer {
	return d.k.SemPost(sem.ID(d.Args[1]))
}

func sysSemWait(d *Dispatcher) cpu.Transfer {
	id, mode := sem.ID(d.Args[1]), sem.Mode(d.Args[2])

	wake := task.WakeNever
	switch mode {
	case sem.Wait, sem.TryWait:
	case sem.TimedWait:
		sec, nsec := uint64(d.Args[3]), d.Args[4]
		if nsec >= 1000000000 {
			d.k.SetError(kernel.EINVAL)
			return cpu.ContinueTransfer()
		}
		wake = sec*1000000 + uint64(nsec/1000)
	default:
		d.k.SetError(kernel.EINVAL)
		return cpu.ContinueTransfer()
	}
	return d.k.SemWait(id, mode, wake)
}

func sysSemGetValue(d *Dispatcher) cpu.Transfer {
	v, ok := d.k.SemValue(sem.ID(d.Args[1]))

	// v is zero for an unknown id; it is written either way so a stale
	// count never leaks.
	d.k.UpdateBridge(func(b *task.Bridge) {
		b.RetSemCount = v
	})
	if !ok {
		d.k.SetError(kernel.EINVAL)
		return cpu.ContinueTransfer()
	}
	d.k.SetError(0)
	return cpu.ContinueTransfer()
}

func sysClockGetRes(d *Dispatcher) cpu.Transfer {
	return d.clock(d.k.ClockRes)
}

func sysClockGetTime(d *Dispatcher) cpu.Transfer {
	return d.clock(d.k.ClockTime)
}

func (d *Dispatcher) clock(read func(sched.Clock) (sched.Timespec, *kernel.Error)) cpu.Transfer {
	ts, err := read(sched.Clock(d.Args[1]))
	if err != nil {
		return d.fail(err)
	}

	d.k.UpdateBridge(func(b *task.Bridge) {
		b.TvSec = ts.Sec
		b.TvNsec = ts.Nsec
	})
	d.k.SetError(0)
	return cpu.ContinueTransfer()
}

func sysClockSetTime(d *Dispatcher) cpu.Transfer {
	d.k.SetError(kernel.EPERM)
	return cpu.ContinueTransfer()
}
