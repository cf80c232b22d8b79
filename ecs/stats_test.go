package ecs_test

import (
	"testing"

	"github.com/plus3/ecsworld/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldStats(t *testing.T) {
	world := mustSystemTestWorld(t, newEachFrameSystem, newMapperSystem)
	for i := range 3 {
		spawnSystemTestComponent(world, float32(i))
	}
	world.Entity(nil)

	world.Update(0.5)
	world.Update(0.5)

	stats := world.Stats()
	assert.Equal(t, 4, stats.EntityCount)

	require.Len(t, stats.Components, 1)
	assert.Equal(t, "ecs_test.systemTestComponent", stats.Components[0].Name)
	assert.Equal(t, 3, stats.Components[0].Count)

	require.Len(t, stats.Families, 1)
	assert.Equal(t, "all(ecs_test.systemTestComponent)", stats.Families[0].Definition)
	assert.Equal(t, 3, stats.Families[0].Members)

	scheduler := stats.Scheduler
	require.NotNil(t, scheduler)
	assert.Equal(t, 2, scheduler.SystemCount)
	assert.Equal(t, int64(4), scheduler.TotalExecutions)

	eachFrame := scheduler.Systems[0]
	assert.Equal(t, "ecs_test.eachFrameSystem", eachFrame.Name)
	assert.Equal(t, ecs.EachFrame(), eachFrame.Interval)
	assert.True(t, eachFrame.Enabled)
	assert.Equal(t, int64(2), eachFrame.ExecutionCount)
	assert.Equal(t, int64(2), eachFrame.TickCount)
	assert.LessOrEqual(t, eachFrame.MinDuration, eachFrame.MaxDuration)

	mapper := scheduler.Systems[1]
	assert.Equal(t, ecs.Fixed(0.25), mapper.Interval)
	assert.Equal(t, int64(2), mapper.ExecutionCount)
	assert.Equal(t, int64(4), mapper.TickCount)
}

func TestWorldStatsNoExecutions(t *testing.T) {
	world := mustSystemTestWorld(t, newEachFrameSystem)

	stats := world.Stats()
	require.Len(t, stats.Scheduler.Systems, 1)
	assert.Zero(t, stats.Scheduler.Systems[0].MinDuration)
	assert.Zero(t, stats.Scheduler.Systems[0].AvgDuration)
	assert.Zero(t, stats.Scheduler.TotalExecutions)
}
