package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/plus3/ecsworld/ecs"
	"go.uber.org/zap"
)

// simulation is a world populated from a spawn table and driven by the stress
// systems.
type simulation struct {
	cfg     *Config
	table   *SpawnTable
	world   *ecs.World
	spawner *SpawnerSystem
	log     *zap.Logger
}

func newSimulation(cfg *Config, table *SpawnTable, log *zap.Logger) (*simulation, error) {
	injectables := ecs.NewInjectables()
	ecs.Provide(injectables, cfg)
	ecs.Provide(injectables, table)

	systems := []ecs.SystemFactory{
		newSpawnerSystem,
		newHealthSystem,
		newMovementSystem,
		newLifetimeSystem,
		newCleanupSystem,
	}
	if cfg.Script.Path != "" {
		systems = append(systems, newScriptSystem(cfg.Script.Path, cfg.Script.Step))
	}

	world, err := ecs.NewWorld(ecs.WorldConfig{
		Registry:       newRegistry(),
		Injectables:    injectables,
		Systems:        systems,
		Logger:         log,
		EntityCapacity: cfg.World.EntityCapacity,
	})
	if err != nil {
		return nil, fmt.Errorf("create world: %w", err)
	}

	spawner, err := ecs.SystemOf[*SpawnerSystem](world)
	if err != nil {
		return nil, err
	}
	return &simulation{
		cfg:     cfg,
		table:   table,
		world:   world,
		spawner: spawner,
		log:     log,
	}, nil
}

// populate spawns the initial population without advancing any other system.
func (s *simulation) populate() {
	s.spawner.OnTick()
}

// run updates the world until ctx is done and returns the filled report.
func (s *simulation) run(ctx context.Context) *Report {
	report := &Report{
		Duration:     s.cfg.Run.Duration,
		TickInterval: s.cfg.Run.TickInterval,
		FixedStep:    s.cfg.World.FixedStep,
		Entities:     s.table.Total(),
		Spawns:       len(s.table.Entries),
		Systems:      s.world.Systems().Len(),

		GCPauseMetrics: s.cfg.Run.GCPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)
	startTime := time.Now()

	if s.cfg.Run.TickInterval > 0 {
		s.world.Run(ctx, s.cfg.Run.TickInterval)
		report.TotalUpdates = s.world.Systems().GetStats().Systems[0].ExecutionCount
	} else {
		lastFrameTime := time.Now()
	Loop:
		for {
			select {
			case <-ctx.Done():
				break Loop
			default:
				deltaTime := time.Since(lastFrameTime)
				lastFrameTime = time.Now()

				updateStart := time.Now()
				s.world.Update(deltaTime.Seconds())
				report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
				report.TotalUpdates++
			}
		}
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.World = s.world.Stats()
	report.Spawned = s.spawner.Spawned()
	return report
}

func (s *simulation) dispose() {
	s.world.Dispose()
}
