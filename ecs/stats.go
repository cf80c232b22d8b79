package ecs

// WorldStats is a snapshot of a world's size.
type WorldStats struct {
	EntityCount int
	Components  []ComponentStats
	Families    []FamilyStats
	Scheduler   *SchedulerStats
}

// ComponentStats describes one instantiated component store.
type ComponentStats struct {
	Name  string
	Count int
}

// FamilyStats describes one cached family.
type FamilyStats struct {
	Definition string
	Members    int
}

// Stats collects a snapshot of the world.
func (w *World) Stats() *WorldStats {
	stats := &WorldStats{
		EntityCount: w.entities.len(),
		Families:    make([]FamilyStats, 0, len(w.familyList)),
		Scheduler:   w.systems.GetStats(),
	}

	for i, store := range w.stores {
		if store == nil {
			continue
		}
		stats.Components = append(stats.Components, ComponentStats{
			Name:  w.registry.Name(ComponentType(i)),
			Count: store.len(),
		})
	}

	for _, f := range w.familyList {
		stats.Families = append(stats.Families, FamilyStats{
			Definition: f.def.describe(w.registry),
			Members:    f.Len(),
		})
	}
	return stats
}
