package ecs

import (
	"math"
	"slices"
	"strings"

	"github.com/kamstrup/intmap"
)

// FamilyDef is a predicate over an entity's component mask made of three clauses:
// all of, none of and any of. An empty clause is vacuously true.
// Definitions are comparable; the world interns families by definition.
type FamilyDef struct {
	all  Mask
	none Mask
	any  Mask
}

// AllOf starts a definition requiring every given type.
func AllOf(types ...ComponentType) FamilyDef {
	return FamilyDef{}.All(types...)
}

// NoneOf starts a definition excluding every given type.
func NoneOf(types ...ComponentType) FamilyDef {
	return FamilyDef{}.None(types...)
}

// AnyOf starts a definition requiring at least one of the given types.
func AnyOf(types ...ComponentType) FamilyDef {
	return FamilyDef{}.Any(types...)
}

// All adds types to the all-of clause.
func (d FamilyDef) All(types ...ComponentType) FamilyDef {
	for _, t := range types {
		d.all.Set(t)
	}
	return d
}

// None adds types to the none-of clause.
func (d FamilyDef) None(types ...ComponentType) FamilyDef {
	for _, t := range types {
		d.none.Set(t)
	}
	return d
}

// Any adds types to the any-of clause.
func (d FamilyDef) Any(types ...ComponentType) FamilyDef {
	for _, t := range types {
		d.any.Set(t)
	}
	return d
}

// Matches reports whether an entity with mask m belongs to the family.
func (d FamilyDef) Matches(m Mask) bool {
	if !m.ContainsAll(d.all) {
		return false
	}
	if m.Intersects(d.none) {
		return false
	}
	return d.any.IsEmpty() || m.Intersects(d.any)
}

// IsEmpty reports whether the definition has no clause at all.
func (d FamilyDef) IsEmpty() bool {
	return d.all.IsEmpty() && d.none.IsEmpty() && d.any.IsEmpty()
}

func (d FamilyDef) describe(r *ComponentRegistry) string {
	var b strings.Builder
	clause := func(name string, m Mask) {
		if m.IsEmpty() {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('(')
		for i, t := range m.Types() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(r.Name(t))
		}
		b.WriteByte(')')
	}
	clause("all", d.all)
	clause("none", d.none)
	clause("any", d.any)
	return b.String()
}

// tombstone marks a vacated membership slot until the next compaction.
const tombstone = Entity(math.MaxUint32)

// Family is the cached, incrementally maintained set of entities matching a FamilyDef.
//
// Members are kept in insertion order unless the family was sorted. Removal is O(1):
// the slot found through the reverse index is tombstoned and the slice is compacted,
// preserving order, before the next iteration.
type Family struct {
	world      *World
	def        FamilyDef
	entities   []Entity
	index      *intmap.Map[Entity, int]
	size       int
	tombstones int
	iterating  int
	onAdd      func(Entity)
	onRemove   func(Entity)
}

func newFamily(w *World, def FamilyDef) *Family {
	return &Family{
		world:    w,
		def:      def,
		entities: make([]Entity, 0, 64),
		index:    intmap.New[Entity, int](64),
	}
}

// Def returns the definition the family was created from.
func (f *Family) Def() FamilyDef {
	return f.def
}

// OnAdd sets the hook fired once when an entity starts matching the family.
func (f *Family) OnAdd(fn func(Entity)) {
	f.onAdd = fn
}

// OnRemove sets the hook fired once when an entity stops matching the family.
// On entity removal it fires before the entity's components are dropped, so the
// hook can read them. When the entity leaves because a component was removed,
// that component is already gone; use Store.OnRemove to observe its value.
func (f *Family) OnRemove(fn func(Entity)) {
	f.onRemove = fn
}

// Len returns the number of members.
func (f *Family) Len() int {
	return f.size
}

// Contains reports whether e is a member.
func (f *Family) Contains(e Entity) bool {
	_, ok := f.index.Get(e)
	return ok
}

// First returns the first member in iteration order.
func (f *Family) First() (Entity, bool) {
	f.compact()
	if len(f.entities) == 0 {
		return 0, false
	}
	return f.entities[0], true
}

// Entities returns a copy of the members in iteration order.
func (f *Family) Entities() []Entity {
	f.compact()
	return slices.Clone(f.entities)
}

// Each calls fn for every member. Structural changes requested by fn are applied
// after the iteration completes.
func (f *Family) Each(fn func(Entity)) {
	f.world.beginBatch()
	defer f.world.endBatch()
	f.iterate(fn)
}

// Sort orders the members with cmp. It panics when called while the family is
// being iterated.
func (f *Family) Sort(cmp func(a, b Entity) int) {
	if f.iterating > 0 {
		panic("ecs: family sorted during iteration")
	}
	f.compact()
	slices.SortStableFunc(f.entities, cmp)
	for i, e := range f.entities {
		f.index.Put(e, i)
	}
}

// iterate walks the current membership. Callers hold a world batch so the
// membership cannot change underneath.
func (f *Family) iterate(fn func(Entity)) {
	f.compact()
	f.iterating++
	defer func() { f.iterating-- }()
	for _, e := range f.entities {
		if e != tombstone {
			fn(e)
		}
	}
}

// update re-evaluates a single entity against the family.
func (f *Family) update(e Entity, m Mask, alive bool) {
	matches := alive && f.def.Matches(m)
	pos, member := f.index.Get(e)

	switch {
	case matches && !member:
		f.entities = append(f.entities, e)
		f.index.Put(e, len(f.entities)-1)
		f.size++
		if f.onAdd != nil {
			f.onAdd(e)
		}
	case !matches && member:
		f.entities[pos] = tombstone
		f.index.Del(e)
		f.tombstones++
		f.size--
		if f.onRemove != nil {
			f.onRemove(e)
		}
	}
}

func (f *Family) compact() {
	if f.tombstones == 0 {
		return
	}
	if f.iterating > 0 {
		panic("ecs: family compacted during iteration")
	}
	w := 0
	for _, e := range f.entities {
		if e == tombstone {
			continue
		}
		f.entities[w] = e
		f.index.Put(e, w)
		w++
	}
	f.entities = f.entities[:w]
	f.tombstones = 0
}
