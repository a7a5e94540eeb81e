// Package refs turns transient stack values into durable handles.
//
// A Table is a script array rooted in the global stash. Slot 0 holds the
// head of a free list threaded through the array itself; every other slot
// holds either a live value or the id of the next free slot. A Ref owns one
// slot and must be dropped explicitly. Slot ids are reused immediately, so
// each slot also carries a host-side generation counter: a Ref used after
// its slot was released panics with ErrStaleRef instead of reading whatever
// value now lives there.
package refs

import (
	"fmt"

	"github.com/tliron/commonlog"

	"stackjs/pkg/errors"
	"stackjs/pkg/stack"
)

var log = commonlog.GetLogger("stackjs.refs")

// ErrStaleRef is the panic value raised when a dropped Ref is used.
var ErrStaleRef = errors.New("refs: use of dropped or stale reference")

const stashKey = "refs"

type tableKey struct{}

// Table is the handle table of one Context.
type Table struct {
	ctx  *stack.Context
	gens []uint32 // generation per slot id
	live int
	peak int
}

// TableFor returns the handle table of c, creating and rooting it on first
// use.
func TableFor(c *stack.Context) *Table {
	if t, ok := c.Data(tableKey{}); ok {
		return t.(*Table)
	}
	t := &Table{ctx: c, gens: []uint32{0}}

	c.PushGlobalStash()
	c.PushArray()
	c.PushInt(0)
	mustOK(c.PutPropIndex(-2, 0))
	mustOK(c.PutPropString(-2, stashKey))
	c.Pop()

	c.SetData(tableKey{}, t)
	return t
}

// Context returns the Context the table belongs to.
func (t *Table) Context() *stack.Context { return t.ctx }

// pushSlots pushes the slot array.
func (t *Table) pushSlots() {
	c := t.ctx
	c.PushGlobalStash()
	mustOK(c.GetPropString(-1, stashKey))
	c.Remove(-2)
}

func (t *Table) slotID(idx int) uint32 {
	n, err := t.ctx.GetUint(idx)
	if err != nil {
		panic(fmt.Sprintf("refs: corrupted free list: %v", err))
	}
	return n
}

// make pops the top value into a slot and returns its id. undefined maps to
// the sentinel id 0 without using a slot.
func (t *Table) make() uint32 {
	c := t.ctx
	if c.IsUndefined(-1) {
		c.Pop()
		return 0
	}

	t.pushSlots() // [v slots]
	mustOK(c.GetPropIndex(-1, 0))
	id := t.slotID(-1)
	c.Pop()
	if id != 0 {
		// Unlink the free head: slot[0] = slot[id].
		mustOK(c.GetPropIndex(-1, id))
		mustOK(c.PutPropIndex(-2, 0))
	} else {
		id = uint32(c.GetLength(-1))
	}
	c.Swap(-1, -2) // [slots v]
	mustOK(c.PutPropIndex(-2, id))
	c.Pop()

	for uint32(len(t.gens)) <= id {
		t.gens = append(t.gens, 0)
	}
	t.live++
	if t.live > t.peak {
		t.peak = t.live
		if t.peak&(t.peak-1) == 0 && t.peak >= 1024 {
			log.Debugf("handle table of %s grew to %d live slots", c.ID(), t.peak)
		}
	}
	return id
}

// push pushes the value held in slot id; id 0 pushes undefined.
func (t *Table) push(id uint32) {
	c := t.ctx
	if id == 0 {
		c.PushUndefined()
		return
	}
	t.pushSlots()
	mustOK(c.GetPropIndex(-1, id))
	c.Remove(-2)
}

// release returns slot id to the free list.
func (t *Table) release(id uint32) {
	if id == 0 {
		return
	}
	c := t.ctx
	t.pushSlots()
	mustOK(c.GetPropIndex(-1, 0))
	mustOK(c.PutPropIndex(-2, id)) // slot[id] = slot[0]
	c.PushUint(id)
	mustOK(c.PutPropIndex(-2, 0)) // slot[0] = id
	c.Pop()

	t.gens[id]++
	t.live--
}

// Stats describes table occupancy.
type Stats struct {
	Live  int // slots held by Refs
	Slots int // slots allocated, free ones included (slot 0 excluded)
	Peak  int // highest Live seen
}

func (t *Table) Stats() Stats {
	return Stats{Live: t.live, Slots: len(t.gens) - 1, Peak: t.peak}
}

// FreeList returns the free slot ids in the order make would reuse them.
func (t *Table) FreeList() []uint32 {
	c := t.ctx
	top := c.Top()
	defer c.SetTop(top)

	var ids []uint32
	t.pushSlots()
	mustOK(c.GetPropIndex(-1, 0))
	for id := t.slotID(-1); id != 0; id = t.slotID(-1) {
		ids = append(ids, id)
		c.Pop()
		mustOK(c.GetPropIndex(-1, id))
	}
	return ids
}

// mustOK guards table bookkeeping on values the table itself created; an
// error here means the stash was tampered with.
func mustOK(err error) {
	if err != nil {
		panic(fmt.Sprintf("refs: table bookkeeping failed: %v", err))
	}
}
