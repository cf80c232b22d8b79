package ecs_test

import (
	"cmp"
	"testing"

	"github.com/plus3/ecsworld/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type systemTestComponent struct {
	X float32
}

type eachFrameSystem struct {
	ecs.IntervalSystem
	numCalls    int
	numDisposes int
}

func (s *eachFrameSystem) OnTick()    { s.numCalls++ }
func (s *eachFrameSystem) OnDispose() { s.numDisposes++ }

func newEachFrameSystem(*ecs.World) (ecs.System, error) {
	return &eachFrameSystem{}, nil
}

type fixedSystem struct {
	ecs.IntervalSystem
	numCalls  int
	lastAlpha float64
}

func (s *fixedSystem) OnTick()               { s.numCalls++ }
func (s *fixedSystem) OnAlpha(alpha float64) { s.lastAlpha = alpha }

func newFixedSystem(*ecs.World) (ecs.System, error) {
	return &fixedSystem{IntervalSystem: ecs.NewIntervalSystem(ecs.Fixed(0.25))}, nil
}

// mapperSystem removes the component of entityToConfigure from inside its pass.
type mapperSystem struct {
	ecs.IteratingSystem
	store             *ecs.Store[systemTestComponent]
	numEntityCalls    int
	numAlphaCalls     int
	lastAlpha         float64
	entityToConfigure *ecs.Entity
}

func newMapperSystem(w *ecs.World) (ecs.System, error) {
	store := ecs.GetStore[systemTestComponent](w)
	return &mapperSystem{
		IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
			Family:   ecs.AllOf(store.Type()),
			Interval: ecs.Fixed(0.25),
		}),
		store: store,
	}, nil
}

func (s *mapperSystem) OnTickEntity(e ecs.Entity) {
	if s.entityToConfigure != nil {
		s.World().Configure(*s.entityToConfigure, func(target ecs.Entity) {
			s.store.Remove(target)
		})
	}
	s.numEntityCalls++
}

func (s *mapperSystem) OnAlphaEntity(e ecs.Entity, alpha float64) {
	s.lastAlpha = alpha
	s.numAlphaCalls++
}

// sortSystem visits entities by descending X and optionally removes one entity
// during its pass.
type sortSystem struct {
	ecs.IteratingSystem
	numEntityCalls    int
	lastEntityProcess ecs.Entity
	entityToRemove    *ecs.Entity
}

func sortSystemFactory(sorting ecs.SortingType) ecs.SystemFactory {
	return func(w *ecs.World) (ecs.System, error) {
		store := ecs.GetStore[systemTestComponent](w)
		return &sortSystem{
			IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
				Family: ecs.AllOf(store.Type()),
				Comparator: func(a, b ecs.Entity) int {
					return cmp.Compare(store.MustGet(b).X, store.MustGet(a).X)
				},
				Sorting: sorting,
			}),
			lastEntityProcess: ^ecs.Entity(0),
		}, nil
	}
}

func (s *sortSystem) OnTickEntity(e ecs.Entity) {
	if s.entityToRemove != nil {
		s.World().Remove(*s.entityToRemove)
		s.entityToRemove = nil
	}
	s.lastEntityProcess = e
	s.numEntityCalls++
}

type injectableSystem struct {
	ecs.IteratingSystem
	injectable string
}

func newInjectableSystem(w *ecs.World) (ecs.System, error) {
	injectable, err := ecs.Inject[string](w)
	if err != nil {
		return nil, err
	}
	ct, _ := ecs.ComponentTypeOf[systemTestComponent](w.Registry())
	return &injectableSystem{
		IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
			Family: ecs.NoneOf(ct).Any(ct),
		}),
		injectable: injectable,
	}, nil
}

func (s *injectableSystem) OnTickEntity(ecs.Entity) {}

type noFamilySystem struct {
	ecs.IteratingSystem
}

func (s *noFamilySystem) OnTickEntity(ecs.Entity) {}

type noTickEntitySystem struct {
	ecs.IteratingSystem
}

func newSystemTestWorld(t *testing.T, injectables *ecs.Injectables, systems ...ecs.SystemFactory) (*ecs.World, error) {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[systemTestComponent](registry)
	return ecs.NewWorld(ecs.WorldConfig{
		Registry:    registry,
		Injectables: injectables,
		Systems:     systems,
	})
}

func mustSystemTestWorld(t *testing.T, systems ...ecs.SystemFactory) *ecs.World {
	t.Helper()
	world, err := newSystemTestWorld(t, nil, systems...)
	require.NoError(t, err)
	return world
}

func mustSystem[T ecs.System](t *testing.T, w *ecs.World) T {
	t.Helper()
	system, err := ecs.SystemOf[T](w)
	require.NoError(t, err)
	return system
}

func spawnSystemTestComponent(w *ecs.World, x float32) ecs.Entity {
	return w.Entity(func(e ecs.Entity) {
		ecs.Add(w, e, systemTestComponent{X: x})
	})
}

func TestIntervalSystemEachFrame(t *testing.T) {
	world := mustSystemTestWorld(t, newEachFrameSystem)
	system := mustSystem[*eachFrameSystem](t, world)

	world.Update(0)
	world.Update(0)

	assert.Equal(t, 2, system.numCalls)
}

func TestIntervalSystemEachFrameDeltaTime(t *testing.T) {
	world := mustSystemTestWorld(t, newEachFrameSystem)
	system := mustSystem[*eachFrameSystem](t, world)

	world.Update(42)

	assert.Equal(t, 42.0, system.DeltaTime())
	assert.Same(t, world, system.World())
}

func TestIntervalSystemFixed(t *testing.T) {
	world := mustSystemTestWorld(t, newFixedSystem)
	system := mustSystem[*fixedSystem](t, world)

	world.Update(1.1)

	assert.Equal(t, 4, system.numCalls)
	assert.InDelta(t, 0.1/0.25, system.lastAlpha, 1e-4)
	assert.InDelta(t, 0.1, system.Accumulator(), 1e-9)
}

func TestIntervalSystemFixedDeltaTime(t *testing.T) {
	system, err := newFixedSystem(nil)
	require.NoError(t, err)

	assert.Equal(t, 0.25, system.(*fixedSystem).DeltaTime())
}

func TestIntervalSystemFixedAccumulates(t *testing.T) {
	world := mustSystemTestWorld(t, newFixedSystem)
	system := mustSystem[*fixedSystem](t, world)

	world.Update(0.1)
	assert.Equal(t, 0, system.numCalls)
	assert.InDelta(t, 0.4, system.lastAlpha, 1e-4)

	world.Update(0.2)
	assert.Equal(t, 1, system.numCalls)
	assert.InDelta(t, 0.2, system.lastAlpha, 1e-4)
}

func TestFixedIntervalPanicsOnInvalidStep(t *testing.T) {
	assert.Panics(t, func() { ecs.Fixed(0) })
	assert.Panics(t, func() { ecs.Fixed(-1) })
	assert.Equal(t, "Fixed(0.25)", ecs.Fixed(0.25).String())
	assert.Equal(t, "EachFrame", ecs.EachFrame().String())
}

func TestIteratingSystemTickAndAlpha(t *testing.T) {
	world := mustSystemTestWorld(t, newMapperSystem)
	spawnSystemTestComponent(world, 0)
	spawnSystemTestComponent(world, 0)

	world.Update(0.3)

	system := mustSystem[*mapperSystem](t, world)
	assert.Equal(t, 2, system.numEntityCalls)
	assert.Equal(t, 2, system.numAlphaCalls)
	assert.InDelta(t, 0.05/0.25, system.lastAlpha, 1e-4)
}

func TestIteratingSystemConfigureDuringIteration(t *testing.T) {
	world := mustSystemTestWorld(t, newMapperSystem)
	world.Update(0.3)
	entity := spawnSystemTestComponent(world, 0)
	system := mustSystem[*mapperSystem](t, world)
	system.entityToConfigure = &entity

	world.Update(0.3)

	assert.False(t, system.store.Has(entity))
	assert.False(t, system.Family().Contains(entity))
}

func TestIteratingSystemSortAutomatic(t *testing.T) {
	world := mustSystemTestWorld(t, sortSystemFactory(ecs.SortAutomatic))
	spawnSystemTestComponent(world, 15)
	spawnSystemTestComponent(world, 10)
	expected := spawnSystemTestComponent(world, 5)

	world.Update(0)

	system := mustSystem[*sortSystem](t, world)
	assert.Equal(t, expected, system.lastEntityProcess)

	// later members are sorted on the next pass without a request
	last := spawnSystemTestComponent(world, 1)
	world.Update(0)
	assert.Equal(t, last, system.lastEntityProcess)
}

func TestIteratingSystemSortManual(t *testing.T) {
	world := mustSystemTestWorld(t, sortSystemFactory(ecs.SortManual))
	spawnSystemTestComponent(world, 5)
	spawnSystemTestComponent(world, 15)
	expected := spawnSystemTestComponent(world, 10)
	system := mustSystem[*sortSystem](t, world)

	world.Update(0)
	assert.Equal(t, expected, system.lastEntityProcess, "no sort without a request")

	system.DoSort = true
	world.Update(0)

	assert.Equal(t, ecs.Entity(0), system.lastEntityProcess)
	assert.False(t, system.DoSort)
}

type unsortedSystem struct {
	ecs.IteratingSystem
}

func (s *unsortedSystem) OnTickEntity(ecs.Entity) {}

func TestIteratingSystemSortManualWithoutComparator(t *testing.T) {
	world := mustSystemTestWorld(t, func(w *ecs.World) (ecs.System, error) {
		return &unsortedSystem{IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
			Family:  ecs.AllOf(ecs.GetStore[systemTestComponent](w).Type()),
			Sorting: ecs.SortManual,
		})}, nil
	})
	first := spawnSystemTestComponent(world, 1)
	spawnSystemTestComponent(world, 2)
	system := mustSystem[*unsortedSystem](t, world)

	system.DoSort = true
	world.Update(0)

	assert.False(t, system.DoSort, "the request is consumed even without a comparator")
	e, ok := system.Family().First()
	require.True(t, ok)
	assert.Equal(t, first, e)
}

func TestIteratingSystemRemoveIsDelayed(t *testing.T) {
	world := mustSystemTestWorld(t, sortSystemFactory(ecs.SortAutomatic))
	spawnSystemTestComponent(world, 15)
	entityToRemove := spawnSystemTestComponent(world, 10)
	spawnSystemTestComponent(world, 5)
	system := mustSystem[*sortSystem](t, world)
	system.entityToRemove = &entityToRemove

	// the first pass still visits all three entities, the second only the remaining two
	world.Update(0)
	world.Update(0)

	assert.Equal(t, 5, system.numEntityCalls)
	assert.False(t, world.Contains(entityToRemove))
}

func TestNoSuchSystem(t *testing.T) {
	world := mustSystemTestWorld(t, sortSystemFactory(ecs.SortAutomatic))

	_, err := ecs.SystemOf[*eachFrameSystem](world)
	assert.ErrorIs(t, err, ecs.ErrNoSuchSystem)
}

func TestUpdateSkipsDisabledSystems(t *testing.T) {
	world := mustSystemTestWorld(t, newEachFrameSystem, newFixedSystem)
	eachFrame := mustSystem[*eachFrameSystem](t, world)
	fixed := mustSystem[*fixedSystem](t, world)
	eachFrame.SetEnabled(false)
	fixed.SetEnabled(false)

	world.Update(1)

	assert.Equal(t, 0, eachFrame.numCalls)
	assert.Equal(t, 0, fixed.numCalls)
	assert.Zero(t, fixed.Accumulator(), "disabled systems do not accumulate time")

	fixed.SetEnabled(true)
	world.Update(0.5)
	assert.Equal(t, 2, fixed.numCalls)
}

func TestSystemInjectable(t *testing.T) {
	injectables := ecs.NewInjectables()
	ecs.Provide(injectables, "42")

	world, err := newSystemTestWorld(t, injectables, newInjectableSystem)
	require.NoError(t, err)

	system := mustSystem[*injectableSystem](t, world)
	assert.Equal(t, "42", system.injectable)
}

func TestSystemCreationErrors(t *testing.T) {
	tests := []struct {
		name    string
		systems []ecs.SystemFactory
		cause   error
	}{
		{
			name:    "missing injectable",
			systems: []ecs.SystemFactory{newInjectableSystem},
			cause:   ecs.ErrMissingInjectable,
		},
		{
			name:    "duplicate system type",
			systems: []ecs.SystemFactory{newEachFrameSystem, newEachFrameSystem},
		},
		{
			name:    "nil factory",
			systems: []ecs.SystemFactory{nil},
		},
		{
			name: "nil system",
			systems: []ecs.SystemFactory{func(*ecs.World) (ecs.System, error) {
				return (*eachFrameSystem)(nil), nil
			}},
		},
		{
			name: "iterating system without family",
			systems: []ecs.SystemFactory{func(*ecs.World) (ecs.System, error) {
				return &noFamilySystem{}, nil
			}},
		},
		{
			name: "iterating system without entity logic",
			systems: []ecs.SystemFactory{func(w *ecs.World) (ecs.System, error) {
				ct, _ := ecs.ComponentTypeOf[systemTestComponent](w.Registry())
				return &noTickEntitySystem{
					IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{Family: ecs.AllOf(ct)}),
				}, nil
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world, err := newSystemTestWorld(t, nil, tt.systems...)
			assert.Nil(t, world)
			require.ErrorIs(t, err, ecs.ErrSystemCreation)

			var creationErr *ecs.SystemCreationError
			require.ErrorAs(t, err, &creationErr)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestSystemCreationErrorIndex(t *testing.T) {
	_, err := newSystemTestWorld(t, nil, newEachFrameSystem, newFixedSystem, newEachFrameSystem)

	var creationErr *ecs.SystemCreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Equal(t, 2, creationErr.Index)
	assert.Equal(t, "ecs_test.eachFrameSystem", creationErr.System)
}
