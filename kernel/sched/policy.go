package sched

// Policy picks the next thread among the n ready threads that are not the
// idle thread. The returned index must be in [0, n).
type Policy interface {
	Pick(n int) int
}

// CounterPolicy rotates a free running cursor over the ready threads. The
// cursor does not track which thread ran last, so creating or exiting a
// thread can make the rotation skip or repeat a thread once.
type CounterPolicy struct {
	cursor uint32
}

// Pick implements Policy.
func (p *CounterPolicy) Pick(n int) int {
	sel := int(p.cursor % uint32(n))
	p.cursor++
	return sel
}
