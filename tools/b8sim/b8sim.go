package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-tty"

	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kmain"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/trace"
)

const keyHelp = "v: vblank  a: audio  q: quit"

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[b8sim] error: %s\n", err.Error())
	os.Exit(1)
}

// sim is a booted console running the demo program.
type sim struct {
	m  *machine.Machine
	k  *kmain.Kernel
	st stats

	usecPerTick   uint32
	cyclesPerTick uint64
}

func newSim(cpuHz, usecPerTick, vblankHz uint32) (*sim, error) {
	mcfg := machine.DefaultConfig()
	mcfg.CPUHz = cpuHz

	kcfg := kmain.DefaultConfig()
	kcfg.UsecPerTick = usecPerTick

	s := &sim{
		m:             machine.New(mcfg),
		usecPerTick:   usecPerTick,
		cyclesPerTick: uint64(cpuHz) * uint64(usecPerTick) / 1000000,
	}
	if s.cyclesPerTick == 0 {
		s.m.Shutdown()
		return nil, fmt.Errorf("a %dus tick is shorter than one cycle at %d Hz", usecPerTick, cpuHz)
	}

	k, err := kmain.Kmain(s.m, kcfg, demo(&s.st, vblankHz))
	if err != nil {
		s.m.Shutdown()
		return nil, err
	}
	s.k = k
	return s, nil
}

// step runs the console for ticks system timer periods.
func (s *sim) step(ticks int) error {
	if err := s.m.RunFor(uint64(ticks) * s.cyclesPerTick); err != nil {
		return err
	}
	return nil
}

// interactive runs the console in real time and maps keys to interrupt
// lines until q is pressed.
func (s *sim) interactive() error {
	term, err := tty.Open()
	if err != nil {
		return err
	}
	defer term.Close()

	kfmt.SetOutputSink(kfmt.NewPrefixWriter(term.Output(), "[b8os] "))
	defer kfmt.SetOutputSink(nil)
	fmt.Fprintln(term.Output(), keyHelp)

	keys := make(chan rune)
	go func() {
		defer close(keys)
		for {
			r, err := term.ReadRune()
			if err != nil {
				return
			}
			keys <- r
		}
	}()

	pace := time.NewTicker(time.Duration(s.usecPerTick) * time.Microsecond)
	defer pace.Stop()

	for {
		select {
		case r, ok := <-keys:
			if !ok {
				return nil
			}
			switch r {
			case 'q', 3:
				return nil
			case 'v':
				s.m.Raise(irq.VBlank)
			case 'a':
				s.m.Raise(irq.Audio)
			}
		case <-pace.C:
			if err := s.step(1); err != nil {
				return err
			}
		}
	}
}

func writeTrace(path string, r *trace.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r.DumpTo(f)
	return nil
}

func runTool() error {
	cpuHz := flag.Uint("hz", machine.DefaultCPUHz, "the core clock in Hz")
	usecPerTick := flag.Uint("tick", 10000, "the system timer period in microseconds")
	vblankHz := flag.Uint("vblank", 60, "the vblank rate in Hz or 0 to disable it")
	ticks := flag.Int("ticks", 0, "run this many ticks without a terminal and exit; 0 runs interactively")
	traceOut := flag.String("trace", "", "a file to write the context switch trace to on exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "b8sim: run the console kernel on the simulated machine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: b8sim [options]\n\nKeys: %s\n\n", keyHelp)
		flag.PrintDefaults()
	}
	flag.Parse()

	s, err := newSim(uint32(*cpuHz), uint32(*usecPerTick), uint32(*vblankHz))
	if err != nil {
		return err
	}
	defer s.m.Shutdown()

	if *ticks > 0 {
		kfmt.SetOutputSink(os.Stdout)
		err = s.step(*ticks)
	} else {
		err = s.interactive()
	}

	if *traceOut != "" && s.k.Trace != nil {
		if terr := writeTrace(*traceOut, s.k.Trace); terr != nil && err == nil {
			err = terr
		}
	}
	return err
}

func main() {
	if err := runTool(); err != nil {
		exit(err)
	}
}
