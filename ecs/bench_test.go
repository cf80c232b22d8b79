package ecs_test

import (
	"testing"

	"github.com/plus3/ecsworld/ecs"
)

func BenchmarkEntity(b *testing.B) {
	world := newTestWorld(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Entity(func(e ecs.Entity) {
			ecs.Add(world, e, Position{X: 1.0, Y: 2.0})
			ecs.Add(world, e, Velocity{DX: 0.5, DY: 0.5})
		})
	}
}

func BenchmarkEntityWithMultipleComponents(b *testing.B) {
	world := newTestWorld(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Entity(func(e ecs.Entity) {
			ecs.Add(world, e, Position{X: 1.0, Y: 2.0})
			ecs.Add(world, e, Velocity{DX: 0.5, DY: 0.5})
			ecs.Add(world, e, Health{Current: 100, Max: 100})
			ecs.Add(world, e, Name{Value: "Entity"})
		})
	}
}

func BenchmarkRemove(b *testing.B) {
	world := newTestWorld(b)
	world.Family(ecs.AllOf(typeOf[Position](b, world)))

	ids := make([]ecs.Entity, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = spawnPosition(world, 1, 2)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Remove(ids[i])
	}
}

func BenchmarkGetComponent(b *testing.B) {
	world := newTestWorld(b)
	store := ecs.GetStore[Position](world)
	id := spawnPosition(world, 1, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.MustGet(id)
	}
}

func BenchmarkAddRemoveComponent(b *testing.B) {
	world := newTestWorld(b)
	world.Family(ecs.AllOf(typeOf[Position](b, world), typeOf[Velocity](b, world)))
	store := ecs.GetStore[Velocity](world)
	id := spawnPosition(world, 1, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Add(id, Velocity{DX: 0.5, DY: 0.5})
		store.Remove(id)
	}
}

type benchMoveSystem struct {
	ecs.IteratingSystem
	positions  *ecs.Store[Position]
	velocities *ecs.Store[Velocity]
}

func (s *benchMoveSystem) OnTickEntity(e ecs.Entity) {
	p := s.positions.MustGet(e)
	v := s.velocities.MustGet(e)
	p.X += v.DX * float32(s.DeltaTime())
	p.Y += v.DY * float32(s.DeltaTime())
}

func benchmarkIteratingSystem(b *testing.B, entityCount int) {
	world := newTestWorld(b, func(w *ecs.World) (ecs.System, error) {
		positions := ecs.GetStore[Position](w)
		velocities := ecs.GetStore[Velocity](w)
		return &benchMoveSystem{
			IteratingSystem: ecs.NewIteratingSystem(ecs.IteratingConfig{
				Family: ecs.AllOf(positions.Type(), velocities.Type()),
			}),
			positions:  positions,
			velocities: velocities,
		}, nil
	})
	for range entityCount {
		world.Entity(func(e ecs.Entity) {
			ecs.Add(world, e, Position{})
			ecs.Add(world, e, Velocity{DX: 1, DY: 1})
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Update(1.0 / 60.0)
	}
}

func BenchmarkIteratingSystem1k(b *testing.B) {
	benchmarkIteratingSystem(b, 1_000)
}

func BenchmarkIteratingSystem10k(b *testing.B) {
	benchmarkIteratingSystem(b, 10_000)
}

func BenchmarkViewIter(b *testing.B) {
	world := newTestWorld(b)
	for range 10_000 {
		world.Entity(func(e ecs.Entity) {
			ecs.Add(world, e, Position{})
			ecs.Add(world, e, Velocity{DX: 1, DY: 1})
		})
	}
	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](world)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for item := range view.Values() {
			item.Position.X += item.Velocity.DX
		}
	}
}
