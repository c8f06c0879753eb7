// Package list implements the fixed-capacity thread queues used by the
// scheduler. Nodes live in an array carved from the kernel boot allocator and
// link to each other by index.
package list

import (
	"github.com/fkuzume/beep8-sdk-sub000/kernel"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/mem"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
)

// nilIndex terminates a chain of nodes.
const nilIndex = 0xffff

var errListFull = &kernel.Error{Module: "list", Message: "failed alloc node"}

type node struct {
	next, prev uint16
	id         task.ThreadID
}

// List is a doubly linked list of thread ids with a fixed capacity.
type List struct {
	nodes      []node
	head, tail uint16
	free       uint16
	size       int
}

// New returns an empty list able to hold capacity ids. Node storage comes
// from alloc and is never reallocated.
func New(alloc *mem.BootAllocator, capacity int) *List {
	kfmt.Assert(capacity > 0 && capacity < nilIndex, "list", "bad list capacity")

	l := &List{
		nodes: mem.AllocSlice[node](alloc, capacity),
		head:  nilIndex,
		tail:  nilIndex,
	}

	// Chain every node on the free list.
	for i := range l.nodes {
		l.nodes[i].next = uint16(i + 1)
	}
	l.nodes[capacity-1].next = nilIndex
	l.free = 0
	return l
}

// Size returns the number of ids in the list.
func (l *List) Size() int { return l.size }

// Cap returns the list capacity.
func (l *List) Cap() int { return len(l.nodes) }

// PushBack appends id. Running out of nodes halts the system.
func (l *List) PushBack(id task.ThreadID) {
	if l.free == nilIndex {
		kfmt.Panic(errListFull)
	}

	n := l.free
	l.free = l.nodes[n].next
	l.nodes[n] = node{next: nilIndex, prev: l.tail, id: id}

	if l.tail == nilIndex {
		l.head = n
	} else {
		l.nodes[l.tail].next = n
	}
	l.tail = n
	l.size++
}

// Erase unlinks the first node holding id. It reports whether id was found;
// erasing an absent id leaves the list untouched.
func (l *List) Erase(id task.ThreadID) bool {
	for n := l.head; n != nilIndex; n = l.nodes[n].next {
		if l.nodes[n].id != id {
			continue
		}

		prev, next := l.nodes[n].prev, l.nodes[n].next
		if prev == nilIndex {
			l.head = next
		} else {
			l.nodes[prev].next = next
		}
		if next == nilIndex {
			l.tail = prev
		} else {
			l.nodes[next].prev = prev
		}

		l.nodes[n] = node{next: l.free, prev: nilIndex}
		l.free = n
		l.size--
		return true
	}
	return false
}

// At returns the id at position i counting from the front. ok is false when
// i is out of range.
func (l *List) At(i int) (id task.ThreadID, ok bool) {
	if i < 0 || i >= l.size {
		return task.InvalidID, false
	}

	n := l.head
	for ; i > 0; i-- {
		n = l.nodes[n].next
	}
	return l.nodes[n].id, true
}

// Contains reports whether id is in the list.
func (l *List) Contains(id task.ThreadID) bool {
	found := false
	l.Each(func(cur task.ThreadID) bool {
		found = cur == id
		return !found
	})
	return found
}

// Each calls fn for every id from front to back until fn returns false.
func (l *List) Each(fn func(id task.ThreadID) bool) {
	for n := l.head; n != nilIndex; n = l.nodes[n].next {
		if !fn(l.nodes[n].id) {
			return
		}
	}
}

// IDs returns a copy of the list contents.
func (l *List) IDs() []task.ThreadID {
	ids := make([]task.ThreadID, 0, l.size)
	l.Each(func(id task.ThreadID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}
