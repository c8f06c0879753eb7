package task

import "github.com/fkuzume/beep8-sdk-sub000/kernel/irq"

// Capacity is the number of threads the kernel can hold.
const Capacity = 32

// Table is the fixed array of thread control blocks.
type Table struct {
	tcbs       [Capacity]TCB
	generation uint32
}

// Reset frees every slot and restarts the generation counter.
func (t *Table) Reset() {
	for i := range t.tcbs {
		t.tcbs[i] = TCB{}
	}
	t.generation = 1
}

// Allocate claims the first free slot, clears it and returns the new id. It
// returns InvalidID when the table is full.
func (t *Table) Allocate() ThreadID {
	if t.generation == 0 {
		t.generation = 1
	}

	for i := range t.tcbs {
		if t.tcbs[i].ID != InvalidID {
			continue
		}

		tcb := &t.tcbs[i]
		tcb.clear()
		tcb.ID = ThreadID(t.generation<<16) | ThreadID(i)
		t.generation++
		return tcb.ID
	}
	return InvalidID
}

// Lookup returns the TCB for id or nil if id is stale or invalid.
func (t *Table) Lookup(id ThreadID) *TCB {
	if id == InvalidID || id.Slot() >= Capacity {
		return nil
	}
	tcb := &t.tcbs[id.Slot()]
	if tcb.ID != id {
		return nil
	}
	return tcb
}

// Free releases the slot held by id. It is only used to roll back a thread
// creation that failed after allocation.
func (t *Table) Free(id ThreadID) {
	if tcb := t.Lookup(id); tcb != nil {
		*tcb = TCB{}
	}
}

// Live returns the number of allocated TCBs that have not exited.
func (t *Table) Live() int {
	n := 0
	for i := range t.tcbs {
		if t.tcbs[i].ID != InvalidID && t.tcbs[i].Status != Zombie {
			n++
		}
	}
	return n
}

// Pinned returns the live thread bound to line or nil.
func (t *Table) Pinned(line irq.Line) *TCB {
	for i := range t.tcbs {
		tcb := &t.tcbs[i]
		if tcb.ID != InvalidID && tcb.Status != Zombie && tcb.IRQ == line {
			return tcb
		}
	}
	return nil
}
