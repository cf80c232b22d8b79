package ecs

import "cmp"

// Entity is an opaque, recyclable identifier for one game object.
// Identifiers are handed out densely from zero and reused after destruction.
type Entity uint32

// CompareEntity orders entities by identifier. It is the fallback comparator
// used for deterministic traversal.
func CompareEntity(a, b Entity) int {
	return cmp.Compare(a, b)
}

// entityStore allocates entity identifiers and owns the per-entity component mask,
// the single source of truth for which components an entity has.
//
// Destroyed identifiers go on a LIFO free list: the most recently destroyed
// identifier is the next one handed out.
type entityStore struct {
	masks    []Mask
	alive    []bool
	dying    []bool
	freeList []Entity
	live     int
}

func newEntityStore(capacity int) *entityStore {
	return &entityStore{
		masks:    make([]Mask, 0, capacity),
		alive:    make([]bool, 0, capacity),
		dying:    make([]bool, 0, capacity),
		freeList: make([]Entity, 0, capacity/4),
	}
}

// create returns a fresh or recycled identifier with an empty mask.
func (s *entityStore) create() Entity {
	s.live++
	if n := len(s.freeList); n > 0 {
		e := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.alive[e] = true
		s.masks[e] = Mask{}
		return e
	}
	e := Entity(len(s.masks))
	s.masks = append(s.masks, Mask{})
	s.alive = append(s.alive, true)
	s.dying = append(s.dying, false)
	return e
}

// release returns the identifier to the free list. The caller must have removed
// every component first.
func (s *entityStore) release(e Entity) {
	s.masks[e] = Mask{}
	s.alive[e] = false
	s.dying[e] = false
	s.freeList = append(s.freeList, e)
	s.live--
}

func (s *entityStore) contains(e Entity) bool {
	return int(e) < len(s.alive) && s.alive[e]
}

// markDying flags e as being destroyed until release.
func (s *entityStore) markDying(e Entity) {
	s.dying[e] = true
}

func (s *entityStore) isDying(e Entity) bool {
	return s.contains(e) && s.dying[e]
}

// active reports whether e is live and not being destroyed. Only active entities
// can join families.
func (s *entityStore) active(e Entity) bool {
	return s.contains(e) && !s.dying[e]
}

func (s *entityStore) mask(e Entity) Mask {
	if !s.contains(e) {
		return Mask{}
	}
	return s.masks[e]
}

func (s *entityStore) has(e Entity, t ComponentType) bool {
	return s.contains(e) && s.masks[e].Has(t)
}

func (s *entityStore) set(e Entity, t ComponentType) {
	s.masks[e].Set(t)
}

func (s *entityStore) unset(e Entity, t ComponentType) {
	s.masks[e].Unset(t)
}

// each calls fn for every live entity in identifier order.
func (s *entityStore) each(fn func(Entity)) {
	for i, ok := range s.alive {
		if ok {
			fn(Entity(i))
		}
	}
}

func (s *entityStore) len() int {
	return s.live
}
