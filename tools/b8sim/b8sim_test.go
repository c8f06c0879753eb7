package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/trace"
)

func TestNewSimRejectsShortTick(t *testing.T) {
	if _, err := newSim(1000, 100, 0); err == nil {
		t.Fatal("expected an error for a tick shorter than a cycle")
	}
}

func TestHeadlessRun(t *testing.T) {
	var buf bytes.Buffer
	kfmt.SetOutputSink(&buf)
	defer kfmt.SetOutputSink(nil)

	s, err := newSim(machine.DefaultCPUHz, 10000, 60)
	if err != nil {
		t.Fatal(err)
	}
	defer s.m.Shutdown()

	if err := s.step(105); err != nil {
		t.Fatalf("machine halted: %v", err)
	}

	if !s.st.ready {
		t.Fatal("expected the demo to finish setup")
	}
	if s.st.frames < 55 || s.st.frames > 63 {
		t.Errorf("expected about 60 frames in a second; got %d", s.st.frames)
	}
	if s.st.audio != 0 {
		t.Errorf("expected no audio events; got %d", s.st.audio)
	}
	if out := buf.String(); !strings.Contains(out, "uptime 1.") {
		t.Errorf("expected an uptime report; got:\n%s", out)
	}

	s.m.Raise(irq.Audio)
	if err := s.step(1); err != nil {
		t.Fatalf("machine halted: %v", err)
	}
	if s.st.audio != 1 {
		t.Errorf("expected 1 audio event; got %d", s.st.audio)
	}
}

func TestWriteTrace(t *testing.T) {
	s, err := newSim(machine.DefaultCPUHz, 10000, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.m.Shutdown()

	if err := s.step(5); err != nil {
		t.Fatalf("machine halted: %v", err)
	}

	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := writeTrace(path, s.k.Trace); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	evs, err := trace.Parse(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) == 0 || len(evs) != len(s.k.Trace.Events()) {
		t.Fatalf("expected %d events; got %d", len(s.k.Trace.Events()), len(evs))
	}
}
