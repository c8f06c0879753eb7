// Package sem implements the kernel semaphore table.
package sem

// ID identifies a semaphore. It combines an allocation generation (high
// bits) with the table slot (low 14 bits). The zero ID is never issued.
type ID uint32

// InvalidID is the reserved "no semaphore" value.
const InvalidID ID = 0

const slotMask = 0x3fff

// Slot returns the table index encoded in id.
func (id ID) Slot() int {
	return int(id & slotMask)
}

// Capacity is the number of semaphores the kernel can hold.
const Capacity = 64

// ValueMax is the largest count a semaphore may reach.
const ValueMax = 32767

// Mode selects the blocking behavior of a wait.
type Mode uint32

// Wait modes.
const (
	Wait Mode = iota
	TryWait
	TimedWait
)

// Semaphore is a counting semaphore. A negative count is the number of
// threads blocked on it.
type Semaphore struct {
	ID    ID
	Count int32
}

// Table is a fixed array of semaphores.
type Table struct {
	sems       [Capacity]Semaphore
	generation uint32
}

// Reset frees every slot and restarts the generation counter.
func (t *Table) Reset() {
	for i := range t.sems {
		t.sems[i] = Semaphore{}
	}
	t.generation = 1
}

// Init claims the first free slot, sets its count to value and returns its
// id. ok is false when the table is full.
func (t *Table) Init(value int32) (id ID, ok bool) {
	if t.generation == 0 {
		t.generation = 1
	}

	for i := range t.sems {
		if t.sems[i].ID != InvalidID {
			continue
		}

		id = ID(t.generation<<14) | ID(i)
		t.generation++
		t.sems[i] = Semaphore{ID: id, Count: value}
		return id, true
	}
	return InvalidID, false
}

// Lookup returns the semaphore for id or nil if id is stale or invalid.
func (t *Table) Lookup(id ID) *Semaphore {
	if id == InvalidID || id.Slot() >= Capacity {
		return nil
	}
	s := &t.sems[id.Slot()]
	if s.ID != id {
		return nil
	}
	return s
}

// InUse returns the number of allocated semaphores.
func (t *Table) InUse() int {
	n := 0
	for i := range t.sems {
		if t.sems[i].ID != InvalidID {
			n++
		}
	}
	return n
}
