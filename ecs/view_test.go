package ecs_test

import (
	"testing"

	"github.com/plus3/ecsworld/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView(t *testing.T) {
	world := newTestWorld(t)
	entityId := world.Entity(func(e ecs.Entity) {
		ecs.Add(world, e, Position{X: 1, Y: 2})
		ecs.Add(world, e, Score(32))
	})

	view := ecs.NewView[struct {
		*Position
		*Score
	}](world)

	item := view.Get(entityId)
	require.NotNil(t, item)
	assert.Equal(t, Score(32), *item.Score)
	assert.Equal(t, float32(1), item.Position.X)
	assert.Equal(t, float32(2), item.Position.Y)

	// views point at the stored components
	item.Position.X = 5
	assert.Equal(t, float32(5), ecs.GetStore[Position](world).MustGet(entityId).X)
}

func TestViewMissingComponent(t *testing.T) {
	world := newTestWorld(t)
	// Entity only has Position, not Velocity
	entityId := spawnPosition(world, 5, 10)

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](world)

	assert.Nil(t, view.Get(entityId))
	assert.Nil(t, view.Get(ecs.Entity(42)))
}

func TestViewOptionalFields(t *testing.T) {
	world := newTestWorld(t)
	withName := world.Entity(func(e ecs.Entity) {
		ecs.Add(world, e, Position{X: 1})
		ecs.Add(world, e, Name{Value: "named"})
	})
	withoutName := spawnPosition(world, 2, 0)

	view := ecs.NewView[struct {
		*Position
		Name *Name `ecs:"optional"`
	}](world)

	item := view.Get(withName)
	require.NotNil(t, item)
	require.NotNil(t, item.Name)
	assert.Equal(t, "named", item.Name.Value)

	item = view.Get(withoutName)
	require.NotNil(t, item)
	assert.Nil(t, item.Name)

	assert.Equal(t, 2, view.Family().Len())
}

func TestViewIter(t *testing.T) {
	world := newTestWorld(t)
	for i := range 3 {
		world.Entity(func(e ecs.Entity) {
			ecs.Add(world, e, Position{X: float32(i)})
			ecs.Add(world, e, Velocity{DX: 1})
		})
	}
	spawnPosition(world, 100, 100)

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](world)

	var visited []ecs.Entity
	for e, item := range view.Iter() {
		item.Position.X += item.Velocity.DX
		visited = append(visited, e)
	}
	assert.Equal(t, []ecs.Entity{0, 1, 2}, visited)

	var xs []float32
	for item := range view.Values() {
		xs = append(xs, item.Position.X)
	}
	assert.Equal(t, []float32{1, 2, 3}, xs)
}

func TestViewIterDefersRemoval(t *testing.T) {
	world := newTestWorld(t)
	for i := range 4 {
		spawnPosition(world, float32(i), 0)
	}
	view := ecs.NewView[struct{ *Position }](world)

	count := 0
	for e := range view.Iter() {
		require.NoError(t, world.Remove(e))
		count++
	}
	assert.Equal(t, 4, count)
	assert.Equal(t, 0, world.NumEntities())
}

func TestViewIterBreak(t *testing.T) {
	world := newTestWorld(t)
	for i := range 4 {
		spawnPosition(world, float32(i), 0)
	}
	view := ecs.NewView[struct{ *Position }](world)

	for e := range view.Iter() {
		require.NoError(t, world.Remove(e))
		break
	}
	assert.Equal(t, 3, world.NumEntities())
	assert.Equal(t, 3, view.Family().Len())
}

func TestViewSpawn(t *testing.T) {
	world := newTestWorld(t)
	view := ecs.NewView[struct {
		*Position
		*Velocity
		Name *Name `ecs:"optional"`
	}](world)

	e := view.Spawn(struct {
		*Position
		*Velocity
		Name *Name `ecs:"optional"`
	}{
		Position: &Position{X: 1, Y: 2},
		Velocity: &Velocity{DX: 3},
	})

	assert.True(t, view.Family().Contains(e))
	assert.False(t, ecs.Has[Name](world, e))
	item := view.Get(e)
	require.NotNil(t, item)
	assert.Equal(t, Velocity{DX: 3}, *item.Velocity)

	assert.Panics(t, func() {
		view.Spawn(struct {
			*Position
			*Velocity
			Name *Name `ecs:"optional"`
		}{Position: &Position{}})
	})
}

func TestViewInvalidTypes(t *testing.T) {
	world := newTestWorld(t)

	assert.Panics(t, func() { ecs.NewView[Position](world) })
	assert.Panics(t, func() { ecs.NewView[struct{ Position }](world) })
	assert.Panics(t, func() { ecs.NewView[struct{ F *float64 }](world) })
	assert.Panics(t, func() {
		ecs.NewView[struct {
			Name *Name `ecs:"sometimes"`
		}](world)
	})
}
