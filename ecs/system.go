package ecs

import "fmt"

// System is a unit of per-tick logic. Implementations embed IntervalSystem or
// IteratingSystem and provide OnTick (iterating systems provide OnTickEntity instead).
type System interface {
	OnTick()
	intervalBase() *IntervalSystem
}

// AlphaSystem is implemented by systems that want the interpolation value left
// over after the fixed steps of an update.
type AlphaSystem interface {
	OnAlpha(alpha float64)
}

// Initializer is implemented by systems that need setup after every system of
// the world has been created.
type Initializer interface {
	OnInit()
}

// Disposer is implemented by systems that release state when the world is disposed.
type Disposer interface {
	OnDispose()
}

// SystemFactory creates one system for w. Factories capture their dependencies
// or read them from the world's injectables.
type SystemFactory func(w *World) (System, error)

// Interval describes how often a system runs: once per world update, or in fixed
// steps with interpolation of the remainder.
type Interval struct {
	step float64
}

// EachFrame runs a system once per world update with the world's delta time.
func EachFrame() Interval {
	return Interval{}
}

// Fixed runs a system once per elapsed step of world time.
func Fixed(step float64) Interval {
	if step <= 0 {
		panic(fmt.Sprintf("ecs: fixed interval step must be positive, got %v", step))
	}
	return Interval{step: step}
}

// IsFixed reports whether the interval is a fixed step.
func (i Interval) IsFixed() bool {
	return i.step > 0
}

// Step returns the fixed step, or 0 for EachFrame.
func (i Interval) Step() float64 {
	return i.step
}

func (i Interval) String() string {
	if i.IsFixed() {
		return fmt.Sprintf("Fixed(%g)", i.step)
	}
	return "EachFrame"
}

// IntervalSystem is the base of every system. The zero value runs each frame and
// is enabled.
type IntervalSystem struct {
	interval    Interval
	disabled    bool
	accumulator float64
	ticks       int64
	world       *World
	self        System
}

// NewIntervalSystem returns a base running at the given interval.
func NewIntervalSystem(interval Interval) IntervalSystem {
	return IntervalSystem{interval: interval}
}

// World returns the world the system is registered with.
func (s *IntervalSystem) World() *World {
	return s.world
}

// Interval returns the system's interval.
func (s *IntervalSystem) Interval() Interval {
	return s.interval
}

// Enabled reports whether the system runs on world updates.
func (s *IntervalSystem) Enabled() bool {
	return !s.disabled
}

// SetEnabled enables or disables the system. A disabled system does not
// accumulate time.
func (s *IntervalSystem) SetEnabled(enabled bool) {
	s.disabled = !enabled
}

// DeltaTime is the step for fixed systems and the world's last delta otherwise.
func (s *IntervalSystem) DeltaTime() float64 {
	if s.interval.IsFixed() {
		return s.interval.step
	}
	if s.world == nil {
		return 0
	}
	return s.world.deltaTime
}

// Accumulator returns the world time not yet consumed by fixed steps.
func (s *IntervalSystem) Accumulator() float64 {
	return s.accumulator
}

func (s *IntervalSystem) intervalBase() *IntervalSystem {
	return s
}

func (s *IntervalSystem) bind(w *World, self System) {
	s.world = w
	s.self = self
}

// onUpdate advances the interval by the world's delta and fires OnTick and OnAlpha.
func (s *IntervalSystem) onUpdate() {
	if !s.interval.IsFixed() {
		s.ticks++
		s.self.OnTick()
		return
	}

	step := s.interval.step
	s.accumulator += s.world.deltaTime
	for s.accumulator >= step {
		s.ticks++
		s.self.OnTick()
		s.accumulator -= step
	}
	if alpha, ok := s.self.(AlphaSystem); ok {
		alpha.OnAlpha(s.accumulator / step)
	}
}
