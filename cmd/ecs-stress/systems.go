package main

import (
	"cmp"
	"math/rand/v2"

	"github.com/plus3/ecsworld/ecs"
	"go.uber.org/zap"
)

// SpawnerSystem keeps every spawn table entry at its configured population.
type SpawnerSystem struct {
	ecs.IntervalSystem
	table      *SpawnTable
	archetypes *ecs.Store[Archetype]
	live       []int
	rng        *rand.Rand
	spawned    int64
}

func newSpawnerSystem(w *ecs.World) (ecs.System, error) {
	table, err := ecs.Inject[*SpawnTable](w)
	if err != nil {
		return nil, err
	}
	cfg, err := ecs.Inject[*Config](w)
	if err != nil {
		return nil, err
	}

	s := &SpawnerSystem{
		table:      table,
		archetypes: ecs.GetStore[Archetype](w),
		live:       make([]int, len(table.Entries)),
		rng:        rand.New(rand.NewPCG(cfg.World.Seed, cfg.World.Seed^0x9e3779b97f4a7c15)),
	}

	// component hooks see the value on replacement and removal alike
	s.archetypes.OnAdd(func(_ ecs.Entity, a *Archetype) {
		s.live[a.Entry]++
	})
	s.archetypes.OnRemove(func(_ ecs.Entity, a *Archetype) {
		s.live[a.Entry]--
	})
	return s, nil
}

func (s *SpawnerSystem) OnTick() {
	for i := range s.table.Entries {
		entry := &s.table.Entries[i]
		for s.live[i] < entry.Count {
			entry.spawn(s.World(), i, s.rng)
			s.spawned++
		}
	}
}

// Live returns the current population of entry i.
func (s *SpawnerSystem) Live(i int) int {
	return s.live[i]
}

// Spawned returns the number of entities created so far.
func (s *SpawnerSystem) Spawned() int64 {
	return s.spawned
}

// MovementSystem integrates velocities in fixed steps and interpolates the
// render position of every moving entity. Members are re-sorted by depth every
// few steps.
type MovementSystem struct {
	ecs.IteratingSystem
	positions  *ecs.Store[Position]
	velocities *ecs.Store[Velocity]
	render     *ecs.Store[RenderPosition]
	sortEvery  int
	steps      int
}

func newMovementSystem(w *ecs.World) (ecs.System, error) {
	cfg, err := ecs.Inject[*Config](w)
	if err != nil {
		return nil, err
	}

	positions := ecs.GetStore[Position](w)
	velocities := ecs.GetStore[Velocity](w)
	frozen := ecs.GetStore[Frozen](w)
	return &MovementSystem{
		IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
			Family:   ecs.AllOf(positions.Type(), velocities.Type()).None(frozen.Type()),
			Interval: ecs.Fixed(cfg.World.FixedStep),
			Comparator: func(a, b ecs.Entity) int {
				return cmp.Or(
					cmp.Compare(positions.MustGet(a).Y, positions.MustGet(b).Y),
					ecs.CompareEntity(a, b),
				)
			},
			Sorting: ecs.SortManual,
		}),
		positions:  positions,
		velocities: velocities,
		render:     ecs.GetStore[RenderPosition](w),
		sortEvery:  cfg.World.SortEvery,
	}, nil
}

func (s *MovementSystem) OnTick() {
	s.steps++
	if s.sortEvery > 0 && s.steps%s.sortEvery == 0 {
		s.DoSort = true
	}
	s.IteratingSystem.OnTick()
}

func (s *MovementSystem) OnTickEntity(e ecs.Entity) {
	p := s.positions.MustGet(e)
	v := s.velocities.MustGet(e)
	p.X += v.DX * s.DeltaTime()
	p.Y += v.DY * s.DeltaTime()
}

func (s *MovementSystem) OnAlphaEntity(e ecs.Entity, alpha float64) {
	r, err := s.render.Get(e)
	if err != nil {
		return
	}
	p := s.positions.MustGet(e)
	v := s.velocities.MustGet(e)
	r.X = p.X + v.DX*s.DeltaTime()*alpha
	r.Y = p.Y + v.DY*s.DeltaTime()*alpha
}

// LifetimeSystem removes entities whose lifetime ran out.
type LifetimeSystem struct {
	ecs.IteratingSystem
	lifetimes *ecs.Store[Lifetime]
	expired   int64
}

func newLifetimeSystem(w *ecs.World) (ecs.System, error) {
	cfg, err := ecs.Inject[*Config](w)
	if err != nil {
		return nil, err
	}
	lifetimes := ecs.GetStore[Lifetime](w)
	return &LifetimeSystem{
		IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
			Family:   ecs.AllOf(lifetimes.Type()),
			Interval: ecs.Fixed(cfg.World.FixedStep),
		}),
		lifetimes: lifetimes,
	}, nil
}

func (s *LifetimeSystem) OnTickEntity(e ecs.Entity) {
	lifetime := s.lifetimes.MustGet(e)
	lifetime.Remaining -= s.DeltaTime()
	if lifetime.Remaining <= 0 {
		s.World().Remove(e)
		s.expired++
	}
}

// Expired returns the number of entities removed by the system.
func (s *LifetimeSystem) Expired() int64 {
	return s.expired
}

// HealthSystem applies health decay once per update. An entity running out of
// health loses its Health and is frozen in place.
type HealthSystem struct {
	ecs.IteratingSystem
	health *ecs.Store[Health]
	frozen *ecs.Store[Frozen]
	deaths int64
}

func newHealthSystem(w *ecs.World) (ecs.System, error) {
	health := ecs.GetStore[Health](w)
	s := &HealthSystem{
		IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
			Family: ecs.AllOf(health.Type()),
		}),
		health: health,
		frozen: ecs.GetStore[Frozen](w),
	}
	s.frozen.OnAdd(func(e ecs.Entity, _ *Frozen) {
		w.Logger().Debug("entity frozen", zap.Uint32("entity", uint32(e)))
	})
	return s, nil
}

func (s *HealthSystem) OnTickEntity(e ecs.Entity) {
	h := s.health.MustGet(e)
	h.decay += h.DecayPerSecond * s.DeltaTime()
	if h.decay >= 1 {
		damage := int(h.decay)
		h.decay -= float64(damage)
		h.Current -= damage
	}
	if h.Current > 0 {
		return
	}

	s.deaths++
	s.World().Configure(e, func(e ecs.Entity) {
		s.health.Remove(e)
		s.frozen.Add(e, Frozen{})
	})
}

// Deaths returns the number of entities that ran out of health.
func (s *HealthSystem) Deaths() int64 {
	return s.deaths
}

// CleanupSystem removes frozen entities at a slow fixed rate so the spawner
// replaces them.
type CleanupSystem struct {
	ecs.IntervalSystem
	frozen  *ecs.Family
	removed int64
}

func newCleanupSystem(w *ecs.World) (ecs.System, error) {
	return &CleanupSystem{
		IntervalSystem: ecs.NewIntervalSystem(ecs.Fixed(1)),
		frozen:         w.Family(ecs.AllOf(ecs.GetStore[Frozen](w).Type())),
	}, nil
}

func (s *CleanupSystem) OnTick() {
	s.frozen.Each(func(e ecs.Entity) {
		s.World().Remove(e)
		s.removed++
	})
}

func (s *CleanupSystem) OnDispose() {
	s.World().Logger().Info("cleanup finished", zap.Int64("removed", s.removed))
}
