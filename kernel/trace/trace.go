// Package trace records context switches for offline inspection.
package trace

import (
	"io"

	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// Cause names the scheduler path that selected the incoming thread.
type Cause uint8

// Switch causes.
const (
	RoundRobin Cause = iota
	Idle
	Yield
	Post
	Timeout
	Timer
	IRQ
)

var causeNames = [...]string{"rr", "idle", "yield", "post", "timeout", "timer", "irq"}

func (c Cause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return "?"
}

// Event is a single context switch.
type Event struct {
	// At is the kernel uptime in microseconds.
	At    uint64
	From  task.ThreadID
	To    task.ThreadID
	Cause Cause
}

// DefaultDepth is the capacity of a Recorder built with NewRecorder(0).
const DefaultDepth = 1024

// Recorder keeps the most recent switch events in a fixed ring.
type Recorder struct {
	events []Event
	next   int
	total  uint64
}

// NewRecorder returns a recorder holding up to depth events.
func NewRecorder(depth int) *Recorder {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Recorder{events: make([]Event, depth)}
}

// Record stores ev, overwriting the oldest event once the ring is full.
func (r *Recorder) Record(ev Event) {
	r.events[r.next] = ev
	r.next = (r.next + 1) % len(r.events)
	r.total++
}

// Total returns the number of events recorded since creation, including
// overwritten ones.
func (r *Recorder) Total() uint64 {
	return r.total
}

// Events returns the retained events, oldest first.
func (r *Recorder) Events() []Event {
	n := len(r.events)
	if r.total < uint64(n) {
		return append([]Event(nil), r.events[:r.next]...)
	}

	out := make([]Event, 0, n)
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

// Order returns the incoming thread of every retained event.
func (r *Recorder) Order() []task.ThreadID {
	evs := r.Events()
	ids := make([]task.ThreadID, len(evs))
	for i, ev := range evs {
		ids[i] = ev.To
	}
	return ids
}

// DumpTo writes one line per retained event to w.
func (r *Recorder) DumpTo(w io.Writer) {
	for _, ev := range r.Events() {
		kfmt.Fprintf(w, "%10d %8s -> %8s %s\n", ev.At, ev.From, ev.To, ev.Cause)
	}
}
