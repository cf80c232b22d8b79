package ecs

import (
	"errors"
	"fmt"
)

// SortingType selects when an iterating system with a comparator sorts its family.
type SortingType int

const (
	// SortAutomatic sorts before every tick pass.
	SortAutomatic SortingType = iota
	// SortManual sorts only on the pass after DoSort was set.
	SortManual
)

// EntityComparator orders two entities; see CompareEntity.
type EntityComparator func(a, b Entity) int

// EntityTicker is the per-entity logic of an iterating system.
type EntityTicker interface {
	OnTickEntity(e Entity)
}

// EntityAlpha is the optional per-entity interpolation logic of an iterating system.
type EntityAlpha interface {
	OnAlphaEntity(e Entity, alpha float64)
}

// IteratingConfig configures an IteratingSystem.
type IteratingConfig struct {
	Family     FamilyDef
	Interval   Interval
	Comparator EntityComparator
	Sorting    SortingType
}

// IteratingSystem runs per-entity logic over a family. Removals and component
// changes requested during a pass are applied once the pass has visited every
// member, so an entity removed mid-pass disappears from the next pass on.
type IteratingSystem struct {
	IntervalSystem

	// DoSort requests a sort before the next tick pass when sorting is manual.
	// It is cleared after sorting.
	DoSort bool

	def        FamilyDef
	family     *Family
	comparator EntityComparator
	sorting    SortingType
	ticker     EntityTicker
	alpha      EntityAlpha
}

// NewIteratingSystem returns a base for a system iterating cfg.Family.
func NewIteratingSystem(cfg IteratingConfig) IteratingSystem {
	return IteratingSystem{
		IntervalSystem: NewIntervalSystem(cfg.Interval),
		def:            cfg.Family,
		comparator:     cfg.Comparator,
		sorting:        cfg.Sorting,
	}
}

// Family returns the family the system iterates.
func (s *IteratingSystem) Family() *Family {
	return s.family
}

// OnTick runs OnTickEntity for every member, sorting first when configured.
func (s *IteratingSystem) OnTick() {
	s.world.beginBatch()
	defer s.world.endBatch()

	if s.sorting == SortAutomatic || s.DoSort {
		if s.comparator != nil {
			s.family.Sort(s.comparator)
		}
		s.DoSort = false
	}
	s.family.iterate(s.ticker.OnTickEntity)
}

// OnAlpha runs OnAlphaEntity for every member when the system implements it.
func (s *IteratingSystem) OnAlpha(alpha float64) {
	if s.alpha == nil {
		return
	}

	s.world.beginBatch()
	defer s.world.endBatch()

	s.family.iterate(func(e Entity) {
		s.alpha.OnAlphaEntity(e, alpha)
	})
}

func (s *IteratingSystem) iteratingBase() *IteratingSystem {
	return s
}

func (s *IteratingSystem) bindFamily(w *World, self System) error {
	if s.def.IsEmpty() {
		return errors.New("iterating system has no family definition")
	}
	ticker, ok := self.(EntityTicker)
	if !ok {
		return fmt.Errorf("iterating system %T does not implement OnTickEntity", self)
	}
	s.ticker = ticker
	s.alpha, _ = self.(EntityAlpha)
	s.family = w.Family(s.def)
	return nil
}

type iteratingSystem interface {
	iteratingBase() *IteratingSystem
}
