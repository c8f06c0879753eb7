package ulib

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
)

// IdleSpin is the number of cycles the idle thread burns between
// interrupt checks.
const IdleSpin = 1000

// Idle is the body of the idle thread.
func Idle(th *machine.Thread, _ uint32) {
	for {
		th.Spin(IdleSpin)
	}
}

// Main returns the entry routine of the main thread: it clears errno, sets
// up the heap lock and runs app. Returning from app exits the thread.
func Main(heap *Heap, app machine.Entry) machine.Entry {
	return func(th *machine.Thread, arg uint32) {
		SetErrno(th, 0)
		if err := heap.Init(th); err != nil {
			kfmt.Errorf("crt: heap init: %s", err)
			return
		}
		app(th, arg)
	}
}
