// Package ulib is the user mode library linked into console programs. It
// wraps the kernel syscalls in a pthread and POSIX semaphore style API and
// provides the IRQ wait helpers drivers block on, the heap lock and the C
// runtime entry that runs the program's main routine.
//
// Every function takes the calling thread. Errors are kernel.Errno values.
package ulib

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/syscall"
)

// Errno returns the error recorded for the calling thread. The first error
// sticks until a successful call or SetErrno clears it.
func Errno(th *machine.Thread) kernel.Errno {
	b := th.Syscall(syscall.GetErrno)
	return kernel.ErrnoFromCode(b.Errcode)
}

// SetErrno replaces the error recorded for the calling thread. Zero clears
// it.
func SetErrno(th *machine.Thread, e kernel.Errno) {
	th.Syscall(syscall.SetErrno, uint32(e.Code()))
}
