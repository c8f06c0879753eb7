package device

import (
	"io"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it.
type ProbeFn func() Driver

// DetectOrder specifies when each driver's probe function will be invoked
// relative to the other drivers.
type DetectOrder int8

// The order in which the boot code probes for devices.
const (
	DetectOrderEarly   DetectOrder = -128
	DetectOrderMemory  DetectOrder = -64
	DetectOrderCounter DetectOrder = -32
	DetectOrderTimers  DetectOrder = 0
	DetectOrderLast    DetectOrder = 127
)

// DriverInfo is a driver paired with the order it is probed in.
type DriverInfo struct {
	// Order specifies at which stage of the boot process this driver
	// will be detected. Drivers with a lower value are probed first.
	Order DetectOrder

	// Probe is a function that attempts to detect the presence of a
	// particular piece of hardware and returns back a driver for it.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }
