package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/plus3/ecsworld/ecs"
	"gopkg.in/yaml.v3"
)

type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// SpawnEntry describes one population of entities the spawner keeps alive.
type SpawnEntry struct {
	Name     string  `yaml:"name"`
	Count    int     `yaml:"count"`
	Position Vec2    `yaml:"position"`
	Spread   float64 `yaml:"spread"`   // random offset around Position
	Velocity *Vec2   `yaml:"velocity"` // nil = static
	Jitter   float64 `yaml:"jitter"`   // random offset around Velocity
	Lifetime float64 `yaml:"lifetime"` // seconds, 0 = immortal
	Health   int     `yaml:"health"`   // 0 = no health
	Decay    float64 `yaml:"decay"`    // health lost per second
	Render   bool    `yaml:"render"`
}

// SpawnTable is the list of populations of a stress run.
type SpawnTable struct {
	Entries []SpawnEntry `yaml:"entries"`
}

// LoadSpawnTable loads a spawn table from a YAML file.
func LoadSpawnTable(path string) (*SpawnTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn table: %w", err)
	}
	return parseSpawnTable(raw)
}

func parseSpawnTable(raw []byte) (*SpawnTable, error) {
	var table SpawnTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse spawn table: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

func (t *SpawnTable) validate() error {
	if len(t.Entries) == 0 {
		return errors.New("spawn table has no entries")
	}
	seen := make(map[string]bool, len(t.Entries))
	for i, entry := range t.Entries {
		if entry.Name == "" {
			return fmt.Errorf("spawn entry #%d has no name", i)
		}
		if seen[entry.Name] {
			return fmt.Errorf("spawn entry %q declared twice", entry.Name)
		}
		seen[entry.Name] = true
		if entry.Count < 0 {
			return fmt.Errorf("spawn entry %q has negative count %d", entry.Name, entry.Count)
		}
	}
	return nil
}

// Total returns the population of the whole table.
func (t *SpawnTable) Total() int {
	total := 0
	for _, entry := range t.Entries {
		total += entry.Count
	}
	return total
}

func defaultSpawnTable() *SpawnTable {
	return &SpawnTable{
		Entries: []SpawnEntry{
			{
				Name:     "particle",
				Count:    8000,
				Spread:   500,
				Velocity: &Vec2{},
				Jitter:   50,
				Lifetime: 2,
				Render:   true,
			},
			{
				Name:     "mob",
				Count:    1500,
				Spread:   1000,
				Velocity: &Vec2{X: 5},
				Jitter:   5,
				Health:   100,
				Decay:    20,
				Render:   true,
			},
			{
				Name:   "prop",
				Count:  500,
				Spread: 1000,
			},
		},
	}
}

// spawn creates one entity of the entry.
func (e *SpawnEntry) spawn(w *ecs.World, index int, rng *rand.Rand) ecs.Entity {
	return w.Entity(func(entity ecs.Entity) {
		ecs.Add(w, entity, Archetype{Entry: index})
		ecs.Add(w, entity, Position{
			X: e.Position.X + spread(rng, e.Spread),
			Y: e.Position.Y + spread(rng, e.Spread),
		})
		if e.Velocity != nil {
			ecs.Add(w, entity, Velocity{
				DX: e.Velocity.X + spread(rng, e.Jitter),
				DY: e.Velocity.Y + spread(rng, e.Jitter),
			})
		}
		if e.Lifetime > 0 {
			ecs.Add(w, entity, Lifetime{Remaining: e.Lifetime * (0.5 + rng.Float64())})
		}
		if e.Health > 0 {
			ecs.Add(w, entity, Health{Current: e.Health, Max: e.Health, DecayPerSecond: e.Decay})
		}
		if e.Render {
			ecs.Add(w, entity, RenderPosition{})
		}
	})
}

func spread(rng *rand.Rand, width float64) float64 {
	if width == 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * width
}
