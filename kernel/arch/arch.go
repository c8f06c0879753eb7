// Package arch defines the boot configuration a console port hands to the
// kernel, including the hardware callbacks the kernel relies on.
package arch

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sem"
)

// Stack sizes reserved for the threads created at boot.
const (
	IdleStackSize mem.Size = 0x100
	MainStackSize mem.Size = 0x2000

	// MinStackRegion is the smallest stack region the kernel accepts.
	MinStackRegion = IdleStackSize + MainStackSize + 0x400
)

// MaxCPUHz is the highest clock rate the microsecond accounting supports.
const MaxCPUHz = 256000000

// Callbacks are the hardware services a port supplies.
type Callbacks struct {
	// TimerIRQ returns the line of the system tick timer.
	TimerIRQ func() (irq.Line, error)

	// StartTimer programs the system timer to fire hz times per second.
	StartTimer func(hz uint32) error

	// StartCycleCounter starts the free running cycle counter.
	StartCycleCounter func() error

	// ReadCycles returns the cycle counter.
	ReadCycles func() uint32

	// ReadAndClearCycles returns the cycle counter and zeroes it in one
	// step.
	ReadAndClearCycles func() uint32

	// Distributor enables or disables interrupt delivery.
	Distributor func(enable bool)

	// WallClock returns milliseconds since the Unix epoch.
	WallClock func() uint64

	// FaultStatus returns the memory interface status latched by a data
	// abort. Optional.
	FaultStatus func() uint32
}

// Config is the boot configuration.
type Config struct {
	// Memory is the RAM holding thread stacks and bridges.
	Memory *mem.Region

	// The region thread stacks are carved from.
	StackBase mem.Addr
	StackSize mem.Size

	CPUHz uint32

	// UsecPerTick is the tick granularity; 10000 at 100Hz.
	UsecPerTick uint32

	// HeapSem receives the semaphore guarding the user heap. The main
	// thread initializes it before the application starts.
	HeapSem *sem.ID

	// Code addresses of the thread entry trampoline and the bodies of the
	// idle and main threads.
	EntryTrampoline uint32
	IdleEntry       uint32
	MainEntry       uint32

	Callbacks
}

var (
	errStackTooSmall = &kernel.Error{Module: "arch", Message: "stack region too small", Errno: kernel.ENOMEM}
	errMissingField  = &kernel.Error{Module: "arch", Message: "missing configuration field", Errno: kernel.EINVAL}
	errBadClock      = &kernel.Error{Module: "arch", Message: "unsupported cpu clock", Errno: kernel.EINVAL}
	errBadStack      = &kernel.Error{Module: "arch", Message: "stack region outside memory", Errno: kernel.EINVAL}
)

// Validate checks that every mandatory field is set and that the stack region
// is large enough for the idle and main threads.
func (c *Config) Validate() *kernel.Error {
	if c.StackSize < MinStackRegion {
		return errStackTooSmall
	}

	switch {
	case c.HeapSem == nil,
		c.TimerIRQ == nil,
		c.StartTimer == nil,
		c.StartCycleCounter == nil,
		c.ReadCycles == nil,
		c.ReadAndClearCycles == nil,
		c.Distributor == nil,
		c.WallClock == nil,
		c.Memory == nil:
		return errMissingField
	}

	if c.CPUHz == 0 || c.CPUHz > MaxCPUHz {
		return errBadClock
	}

	if !c.Memory.Contains(c.StackBase, c.StackSize) {
		return errBadStack
	}
	return nil
}
