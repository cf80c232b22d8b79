package ecs

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about system execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Interval       Interval
	Enabled        bool
	ExecutionCount int64
	TickCount      int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// SystemService owns a world's systems in registration order.
type SystemService struct {
	world       *World
	systems     []System
	byType      map[reflect.Type]System
	systemStats []*systemStatsInternal
}

func newSystemService(w *World, factories []SystemFactory) (*SystemService, error) {
	s := &SystemService{
		world:   w,
		systems: make([]System, 0, len(factories)),
		byType:  make(map[reflect.Type]System, len(factories)),
	}

	for i, factory := range factories {
		if err := s.register(i, factory); err != nil {
			w.logger.Error("system creation failed", zap.Error(err))
			return nil, err
		}
	}

	for _, system := range s.systems {
		if init, ok := system.(Initializer); ok {
			init.OnInit()
		}
	}
	return s, nil
}

func (s *SystemService) register(index int, factory SystemFactory) error {
	if factory == nil {
		return &SystemCreationError{Index: index, Err: fmt.Errorf("nil factory")}
	}

	system, err := factory(s.world)
	if err != nil {
		return &SystemCreationError{Index: index, Err: err}
	}
	if isNilSystem(system) {
		return &SystemCreationError{Index: index, Err: fmt.Errorf("factory returned no system")}
	}

	systemType := reflect.TypeOf(system)
	name := systemName(systemType)
	if _, dup := s.byType[systemType]; dup {
		return &SystemCreationError{Index: index, System: name, Err: fmt.Errorf("system type declared more than once")}
	}

	system.intervalBase().bind(s.world, system)
	if it, ok := system.(iteratingSystem); ok {
		if err := it.iteratingBase().bindFamily(s.world, system); err != nil {
			return &SystemCreationError{Index: index, System: name, Err: err}
		}
	}

	s.systems = append(s.systems, system)
	s.byType[systemType] = system
	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	})

	s.world.logger.Debug("system registered",
		zap.String("system", name),
		zap.Stringer("interval", system.intervalBase().interval),
	)
	return nil
}

// Systems returns the systems in registration order.
func (s *SystemService) Systems() []System {
	systems := make([]System, 0, len(s.systems))
	return append(systems, s.systems...)
}

// Len returns the number of systems.
func (s *SystemService) Len() int {
	return len(s.systems)
}

// Update runs every enabled system once, in registration order, using the world's
// current delta time. Disabled systems are skipped entirely.
func (s *SystemService) Update() {
	for i, system := range s.systems {
		base := system.intervalBase()
		if base.disabled {
			continue
		}

		start := time.Now()
		base.onUpdate()
		duration := time.Since(start)

		stats := s.systemStats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}
}

// Dispose calls OnDispose on every system in registration order, enabled or not.
func (s *SystemService) Dispose() {
	for _, system := range s.systems {
		if d, ok := system.(Disposer); ok {
			d.OnDispose()
		}
	}
}

// Run updates the world repeatedly at the given interval until the context is cancelled.
func (s *SystemService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.world.Update(dt)
		}
	}
}

// GetStats returns statistics about system execution.
func (s *SystemService) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Systems:     make([]SystemStats, len(s.systemStats)),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		base := s.systems[i].intervalBase()
		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			Interval:       base.interval,
			Enabled:        !base.disabled,
			ExecutionCount: internal.executionCount,
			TickCount:      base.ticks,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}

// SystemOf returns the world's system of type T.
func SystemOf[T System](w *World) (T, error) {
	var zero T
	system, ok := w.systems.byType[reflect.TypeFor[T]()]
	if !ok {
		return zero, fmt.Errorf("ecs: %s: %w", systemName(reflect.TypeFor[T]()), ErrNoSuchSystem)
	}
	return system.(T), nil
}

func systemName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

func isNilSystem(system System) bool {
	if system == nil {
		return true
	}
	v := reflect.ValueOf(system)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
