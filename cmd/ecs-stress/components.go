package main

import "github.com/plus3/ecsworld/ecs"

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

// RenderPosition is the position interpolated between two fixed steps.
type RenderPosition struct {
	X, Y float64
}

// Lifetime removes the entity once Remaining drops to zero.
type Lifetime struct {
	Remaining float64
}

type Health struct {
	Current, Max int
	// DecayPerSecond is the damage taken per second of world time.
	DecayPerSecond float64
	decay          float64
}

// Frozen entities are skipped by movement.
type Frozen struct{}

// Archetype links an entity to the spawn table entry it was created from.
type Archetype struct {
	Entry int
}

func newRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[RenderPosition](registry)
	ecs.RegisterComponent[Lifetime](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Frozen](registry)
	ecs.RegisterComponent[Archetype](registry)
	return registry
}
