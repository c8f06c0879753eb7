package kfmt

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fkuzume/beep8-sdk-sub000/kernel"
)

var (
	// cpuHaltFn is invoked once the panic banner has been printed. Ports
	// replace it through SetHaltHook; tests swap it directly.
	cpuHaltFn = func() {}

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Halt is the value Panic unwinds with after the CPU halt hook returns. The
// kernel trap entry recovers it and reports the halted state to the port.
type Halt struct {
	Err *kernel.Error
}

// SetHaltHook registers fn as the CPU halt routine. A nil fn restores the
// default no-op hook.
func SetHaltHook(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	cpuHaltFn = fn
}

// Panic outputs the supplied error (if not nil) to the console and halts the
// CPU. Calls to Panic never return.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		err = &kernel.Error{Module: errRuntimePanic.Module, Message: t}
	case error:
		err = &kernel.Error{Module: errRuntimePanic.Module, Message: t.Error()}
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	cpuHaltFn()

	if err == nil {
		err = errRuntimePanic
	}
	panic(&Halt{Err: err})
}

// Assert halts the system when cond is false. The diagnostic names the
// source file, line and function of the caller before the panic banner.
func Assert(cond bool, module, msg string) {
	if cond {
		return
	}

	fnName := "?"
	pc, file, line, _ := runtime.Caller(1)
	if fn := runtime.FuncForPC(pc); fn != nil {
		fnName = fn.Name()
		if i := strings.LastIndexByte(fnName, '.'); i >= 0 {
			fnName = fnName[i+1:]
		}
	}

	Printf("b8os panic:%s (%d) %s() %s\n", filepath.Base(file), line, fnName, msg)
	Panic(&kernel.Error{Module: module, Message: msg})
}
