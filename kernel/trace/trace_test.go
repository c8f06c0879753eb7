package trace

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

func TestRecorderWraps(t *testing.T) {
	r := NewRecorder(3)

	for i := 1; i <= 5; i++ {
		r.Record(Event{At: uint64(i), To: task.ThreadID(i)})
	}

	if r.Total() != 5 {
		t.Fatalf("expected 5 recorded events; got %d", r.Total())
	}

	if got, exp := r.Order(), []task.ThreadID{3, 4, 5}; !reflect.DeepEqual(got, exp) {
		t.Fatalf("expected %v; got %v", exp, got)
	}
}

func TestRecorderPartial(t *testing.T) {
	r := NewRecorder(0)
	if len(r.events) != DefaultDepth {
		t.Fatalf("expected default depth %d; got %d", DefaultDepth, len(r.events))
	}

	r.Record(Event{At: 10, From: 0x10000, To: 0x20001, Cause: Post})
	evs := r.Events()
	if len(evs) != 1 || evs[0].Cause != Post {
		t.Fatalf("unexpected events %+v", evs)
	}

	var buf bytes.Buffer
	r.DumpTo(&buf)
	if got := buf.String(); !strings.Contains(got, "20001 post") {
		t.Fatalf("unexpected dump %q", got)
	}
}

func TestCauseString(t *testing.T) {
	specs := []struct {
		c   Cause
		exp string
	}{
		{RoundRobin, "rr"},
		{Idle, "idle"},
		{IRQ, "irq"},
		{Cause(99), "?"},
	}

	for _, spec := range specs {
		if got := spec.c.String(); got != spec.exp {
			t.Errorf("expected %q; got %q", spec.exp, got)
		}
	}
}

func TestParse(t *testing.T) {
	r := NewRecorder(4)
	r.Record(Event{At: 10000, From: 0x10000, To: 0x20001, Cause: RoundRobin})
	r.Record(Event{At: 10050, From: 0x20001, To: 0x30002, Cause: Yield})
	r.Record(Event{At: 20000, From: 0x30002, To: 0x10000, Cause: Idle})

	var buf bytes.Buffer
	r.DumpTo(&buf)
	buf.WriteString("\n")

	evs, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(evs, r.Events()) {
		t.Fatalf("expected %+v; got %+v", r.Events(), evs)
	}

	specs := []string{
		"10 1 2 rr",
		"x 10000 -> 20001 rr",
		"10 zz -> 20001 rr",
		"10 10000 -> 20001 nap",
	}
	for specIndex, spec := range specs {
		if _, err := Parse(strings.NewReader(spec)); err == nil {
			t.Errorf("[spec %d] expected an error for %q", specIndex, spec)
		}
	}
}
