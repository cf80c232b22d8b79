package ecs_test

import (
	"testing"

	"github.com/plus3/ecsworld/ecs"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

type Inventory struct {
	Items []string
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[PlayerController](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Tag](registry)
	ecs.RegisterComponent[Inventory](registry)
	return registry
}

// newTestWorld creates a world over the test registry with the given systems.
func newTestWorld(t testing.TB, systems ...ecs.SystemFactory) *ecs.World {
	t.Helper()
	world, err := ecs.NewWorld(ecs.WorldConfig{
		Registry: newTestRegistry(),
		Systems:  systems,
	})
	require.NoError(t, err)
	return world
}

func typeOf[T any](t testing.TB, w *ecs.World) ecs.ComponentType {
	t.Helper()
	ct, ok := ecs.ComponentTypeOf[T](w.Registry())
	require.True(t, ok)
	return ct
}

func spawnPosition(w *ecs.World, x, y float32) ecs.Entity {
	return w.Entity(func(e ecs.Entity) {
		ecs.Add(w, e, Position{X: x, Y: y})
	})
}
