package ecs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WorldConfig configures a World.
type WorldConfig struct {
	// Registry provides the component types. A new empty registry is used when nil.
	Registry *ComponentRegistry
	// Injectables are the values system factories may request with Inject.
	Injectables *Injectables
	// Systems are created in order; the order is also the update order.
	Systems []SystemFactory
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// EntityCapacity pre-sizes the entity store.
	EntityCapacity int

	OnAddEntity    func(Entity)
	OnRemoveEntity func(Entity)
}

// World owns the entities, the component stores, the family cache and the systems.
// A World is single-threaded: every call must come from the same goroutine.
type World struct {
	registry    *ComponentRegistry
	entities    *entityStore
	stores      []componentStorage
	families    map[FamilyDef]*Family
	familyList  []*Family
	systems     *SystemService
	injectables *Injectables
	logger      *zap.Logger

	deltaTime  float64
	batchDepth int
	flushing   bool
	commands   commands

	onAddEntity    func(Entity)
	onRemoveEntity func(Entity)
}

// NewWorld creates a world and its systems. It fails with a *SystemCreationError
// when a system cannot be created.
func NewWorld(cfg WorldConfig) (*World, error) {
	if cfg.Registry == nil {
		cfg.Registry = NewComponentRegistry()
	}
	if cfg.Injectables == nil {
		cfg.Injectables = NewInjectables()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.EntityCapacity <= 0 {
		cfg.EntityCapacity = 512
	}

	w := &World{
		registry:       cfg.Registry,
		entities:       newEntityStore(cfg.EntityCapacity),
		stores:         make([]componentStorage, cfg.Registry.Len()),
		families:       make(map[FamilyDef]*Family),
		injectables:    cfg.Injectables,
		logger:         cfg.Logger.Named("ecs"),
		commands:       newCommands(),
		onAddEntity:    cfg.OnAddEntity,
		onRemoveEntity: cfg.OnRemoveEntity,
	}

	systems, err := newSystemService(w, cfg.Systems)
	if err != nil {
		return nil, err
	}
	w.systems = systems

	if unused := w.injectables.unused(); len(unused) > 0 {
		w.logger.Debug("injectables not used by any system", zap.Strings("injectables", unused))
	}
	return w, nil
}

// EmptyWorld returns a fully functional world without systems and with an empty
// component registry.
func EmptyWorld() *World {
	w, err := NewWorld(WorldConfig{})
	if err != nil {
		panic(err)
	}
	return w
}

// Registry returns the world's component registry.
func (w *World) Registry() *ComponentRegistry {
	return w.registry
}

// Logger returns the world's logger.
func (w *World) Logger() *zap.Logger {
	return w.logger
}

// Systems returns the world's system service.
func (w *World) Systems() *SystemService {
	return w.systems
}

// DeltaTime returns the delta of the last Update.
func (w *World) DeltaTime() float64 {
	return w.deltaTime
}

// Entity creates an entity and lets configure add its initial components. Families
// see the entity once configuration is complete.
func (w *World) Entity(configure func(Entity)) Entity {
	w.beginBatch()
	defer w.endBatch()

	e := w.entities.create()
	w.commands.markDirty(e)
	if configure != nil {
		configure(e)
	}
	if w.onAddEntity != nil {
		w.onAddEntity(e)
	}
	return e
}

// Configure applies fn to an existing entity; families are updated once fn returns.
func (w *World) Configure(e Entity, fn func(Entity)) error {
	if !w.entities.contains(e) {
		return invalidEntity(e)
	}
	w.beginBatch()
	defer w.endBatch()
	fn(e)
	return nil
}

// Remove destroys e. Inside a system pass, a family iteration or a hook run while
// queued work is applied, the removal is queued and applied when the pass completes.
// Removing an entity that is already being destroyed is a no-op.
func (w *World) Remove(e Entity) error {
	if !w.entities.contains(e) {
		return invalidEntity(e)
	}
	if w.entities.isDying(e) {
		return nil
	}
	if w.batchDepth > 0 || w.flushing {
		w.commands.remove(e)
		return nil
	}
	w.destroy(e)
	return nil
}

// RemoveAll destroys every entity, deferring like Remove.
func (w *World) RemoveAll() {
	var live []Entity
	w.entities.each(func(e Entity) {
		if !w.entities.isDying(e) {
			live = append(live, e)
		}
	})

	if w.batchDepth > 0 || w.flushing {
		for _, e := range live {
			w.commands.remove(e)
		}
		return
	}
	for _, e := range live {
		if w.entities.active(e) {
			w.destroy(e)
		}
	}
}

// Contains reports whether e is a live entity.
func (w *World) Contains(e Entity) bool {
	return w.entities.contains(e)
}

// Mask returns the component mask of e; it is empty for dead entities.
func (w *World) Mask(e Entity) Mask {
	return w.entities.mask(e)
}

// NumEntities returns the number of live entities.
func (w *World) NumEntities() int {
	return w.entities.len()
}

// Each calls fn for every live entity in identifier order.
func (w *World) Each(fn func(Entity)) {
	w.beginBatch()
	defer w.endBatch()
	w.entities.each(fn)
}

// Family returns the family for def, creating and seeding it on first use.
func (w *World) Family(def FamilyDef) *Family {
	if f, ok := w.families[def]; ok {
		return f
	}

	f := newFamily(w, def)
	w.entities.each(func(e Entity) {
		f.update(e, w.entities.mask(e), true)
	})
	w.families[def] = f
	w.familyList = append(w.familyList, f)

	w.logger.Debug("family created",
		zap.String("family", def.describe(w.registry)),
		zap.Int("members", f.Len()),
	)
	return f
}

// Defer runs fn after the current pass, or immediately outside of one.
func (w *World) Defer(fn func()) {
	if w.batchDepth > 0 || w.flushing {
		w.commands.deferFn(fn)
		return
	}
	fn()
}

// Update advances every enabled system by dt.
func (w *World) Update(dt float64) {
	w.deltaTime = dt
	w.systems.Update()
}

// Run updates the world at the given interval with the measured delta time until
// the context is cancelled.
func (w *World) Run(ctx context.Context, interval time.Duration) {
	w.systems.Run(ctx, interval)
}

// Dispose removes every entity and then disposes the systems in registration order.
func (w *World) Dispose() {
	w.RemoveAll()
	w.systems.Dispose()
	w.logger.Info("world disposed", zap.Int("systems", w.systems.Len()))
}

func (w *World) storeFor(t ComponentType) componentStorage {
	for int(t) >= len(w.stores) {
		w.stores = append(w.stores, nil)
	}
	if w.stores[t] == nil {
		w.stores[t] = w.registry.factories[t](w, t)
	}
	return w.stores[t]
}

func (w *World) componentAdded(e Entity, t ComponentType) {
	w.entities.set(e, t)
	w.entityChanged(e)
}

func (w *World) componentRemoved(e Entity, t ComponentType) {
	w.entities.unset(e, t)
	w.entityChanged(e)
}

func (w *World) entityChanged(e Entity) {
	if w.batchDepth > 0 {
		w.commands.markDirty(e)
		return
	}
	w.refreshFamilies(e)
}

// refreshFamilies re-evaluates e against every family. The mask is read per family
// because hooks may change the entity in between.
func (w *World) refreshFamilies(e Entity) {
	for _, f := range w.familyList {
		f.update(e, w.entities.mask(e), w.entities.active(e))
	}
}

// destroy leaves the families first so family hooks can still read components,
// then drops every component and releases the identifier. The entity is marked
// dying for the duration so hooks cannot destroy it again or re-add it to a family.
func (w *World) destroy(e Entity) {
	w.entities.markDying(e)
	for _, f := range w.familyList {
		f.update(e, Mask{}, false)
	}
	if w.onRemoveEntity != nil {
		w.onRemoveEntity(e)
	}

	for m := w.entities.mask(e); !m.IsEmpty(); m = w.entities.mask(e) {
		for _, t := range m.Types() {
			w.storeFor(t).removeEntity(e)
		}
	}
	w.entities.release(e)

	// component hooks may have re-added the entity to a family
	for _, f := range w.familyList {
		f.update(e, Mask{}, false)
	}
}
