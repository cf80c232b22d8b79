package ecs

import "github.com/kamstrup/intmap"

// commands buffers structural changes requested while a batch is open: entity
// removals, entities whose family membership must be re-evaluated, and deferred
// functions. The world flushes the buffer when the outermost batch closes.
type commands struct {
	removals   []Entity
	removalSet *intmap.Map[Entity, struct{}]
	dirty      []Entity
	dirtySet   *intmap.Map[Entity, struct{}]
	defers     []func()
}

func newCommands() commands {
	return commands{
		removalSet: intmap.New[Entity, struct{}](64),
		dirtySet:   intmap.New[Entity, struct{}](64),
	}
}

// remove queues a removal; an entity queued twice is removed once.
func (c *commands) remove(e Entity) {
	if _, queued := c.removalSet.Get(e); queued {
		return
	}
	c.removalSet.Put(e, struct{}{})
	c.removals = append(c.removals, e)
}

func (c *commands) markDirty(e Entity) {
	if _, queued := c.dirtySet.Get(e); queued {
		return
	}
	c.dirtySet.Put(e, struct{}{})
	c.dirty = append(c.dirty, e)
}

func (c *commands) deferFn(fn func()) {
	c.defers = append(c.defers, fn)
}

func (c *commands) pending() bool {
	return len(c.removals) > 0 || len(c.dirty) > 0 || len(c.defers) > 0
}

func (w *World) beginBatch() {
	w.batchDepth++
}

func (w *World) endBatch() {
	w.batchDepth--
	if w.batchDepth == 0 {
		w.flush()
	}
}

// flush applies queued work: removals first, then family re-evaluation of dirty
// entities, then deferred functions. Hooks run along the way queue more work
// instead of applying it, so an identifier recycled by a hook is never hit by a
// removal queued for its previous owner. It loops until the buffer is empty.
func (w *World) flush() {
	if w.flushing {
		return
	}
	w.flushing = true
	defer func() { w.flushing = false }()

	c := &w.commands
	for c.pending() {
		for i := 0; i < len(c.removals); i++ {
			e := c.removals[i]
			c.removalSet.Del(e)
			if w.entities.active(e) {
				w.destroy(e)
			}
		}
		c.removals = c.removals[:0]

		for i := 0; i < len(c.dirty); i++ {
			e := c.dirty[i]
			c.dirtySet.Del(e)
			w.refreshFamilies(e)
		}
		c.dirty = c.dirty[:0]

		for i := 0; i < len(c.defers); i++ {
			c.defers[i]()
		}
		c.defers = c.defers[:0]
	}
}
