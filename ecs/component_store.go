package ecs

import (
	"fmt"
	"math/bits"
	"reflect"
	"unsafe"
)

// ComponentType is the dense index a registry assigns to a component type. It is
// used as the bit position in entity masks and as the selector of the world's stores.
type ComponentType uint8

// ComponentRegistry manages component type registration. A registry may be
// shared by several worlds; each world instantiates its own stores from it.
type ComponentRegistry struct {
	types     map[reflect.Type]ComponentType
	names     []string
	factories []func(w *World, t ComponentType) componentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		types: make(map[reflect.Type]ComponentType),
	}
}

// RegisterComponent registers T with the registry and returns its component type.
// Registering the same type twice returns the existing index.
func RegisterComponent[T any](r *ComponentRegistry) ComponentType {
	rt := reflect.TypeFor[T]()
	if t, ok := r.types[rt]; ok {
		return t
	}
	if len(r.factories) >= MaxComponentTypes {
		panic(fmt.Sprintf("cannot register %s: more than %d component types", rt, MaxComponentTypes))
	}

	t := ComponentType(len(r.factories))
	r.types[rt] = t
	r.names = append(r.names, rt.String())
	r.factories = append(r.factories, func(w *World, t ComponentType) componentStorage {
		return &Store[T]{world: w, typ: t}
	})
	return t
}

// ComponentTypeOf returns the component type registered for T.
func ComponentTypeOf[T any](r *ComponentRegistry) (ComponentType, bool) {
	t, ok := r.types[reflect.TypeFor[T]()]
	return t, ok
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.factories)
}

// Name returns the Go type name of t.
func (r *ComponentRegistry) Name(t ComponentType) string {
	if int(t) >= len(r.names) {
		return fmt.Sprintf("component#%d", t)
	}
	return r.names[t]
}

// componentStorage is the type-erased view of a Store used by the world on destroy,
// by views and for statistics.
type componentStorage interface {
	removeEntity(e Entity)
	pointer(e Entity) unsafe.Pointer
	addFrom(e Entity, src unsafe.Pointer)
	len() int
}

const storeBlockSize = 64

type storeBlock[T any] struct {
	values [storeBlockSize]T
	filled uint64
}

// Store holds every component of type T in a world, indexed by entity.
//
// Values live in fixed-size blocks referenced by pointer, so growing the store
// never moves existing values: a *T obtained during a tick stays valid until the
// component is removed.
type Store[T any] struct {
	world    *World
	typ      ComponentType
	blocks   []*storeBlock[T]
	count    int
	onAdd    func(Entity, *T)
	onRemove func(Entity, *T)
}

// GetStore returns the world's store for T. It panics if T was never registered.
func GetStore[T any](w *World) *Store[T] {
	t, ok := ComponentTypeOf[T](w.registry)
	if !ok {
		panic("component type " + reflect.TypeFor[T]().String() + " not registered")
	}
	return w.storeFor(t).(*Store[T])
}

// Type returns the component type of the store.
func (s *Store[T]) Type() ComponentType {
	return s.typ
}

// OnAdd sets the hook invoked after a component is added or replaced.
// The hook may add further components.
func (s *Store[T]) OnAdd(fn func(Entity, *T)) {
	s.onAdd = fn
}

// OnRemove sets the hook invoked with the value of a removed or replaced component.
func (s *Store[T]) OnRemove(fn func(Entity, *T)) {
	s.onRemove = fn
}

// Add stores value for e and returns a pointer to the stored component. An existing
// component is replaced: the remove hook sees the old value, the add hook the new one.
func (s *Store[T]) Add(e Entity, value T) (*T, error) {
	if !s.world.entities.contains(e) {
		return nil, invalidEntity(e)
	}

	block, bit := s.ensure(e)
	ptr := &block.values[bit]

	if block.filled&(1<<bit) != 0 {
		old := *ptr
		*ptr = value
		if s.onRemove != nil {
			s.onRemove(e, &old)
		}
		if s.onAdd != nil {
			s.onAdd(e, ptr)
		}
		return ptr, nil
	}

	*ptr = value
	block.filled |= 1 << bit
	s.count++
	s.world.componentAdded(e, s.typ)

	if s.onAdd != nil {
		s.onAdd(e, ptr)
	}
	return ptr, nil
}

// AddFn adds a zero T configured by fn.
func (s *Store[T]) AddFn(e Entity, fn func(*T)) (*T, error) {
	var value T
	if fn != nil {
		fn(&value)
	}
	return s.Add(e, value)
}

// Remove deletes the component of e. Removing an absent component is a no-op.
func (s *Store[T]) Remove(e Entity) error {
	if !s.world.entities.contains(e) {
		return invalidEntity(e)
	}
	if old, ok := s.take(e); ok {
		s.world.componentRemoved(e, s.typ)
		if s.onRemove != nil {
			s.onRemove(e, &old)
		}
	}
	return nil
}

// Get returns the component of e, or an error wrapping ErrMissingComponent.
func (s *Store[T]) Get(e Entity) (*T, error) {
	if ptr := s.lookup(e); ptr != nil {
		return ptr, nil
	}
	return nil, fmt.Errorf("ecs: %s on entity %d: %w", s.world.registry.Name(s.typ), e, ErrMissingComponent)
}

// MustGet is like Get but panics when the component is missing. It suits hot loops
// over a family that guarantees the component.
func (s *Store[T]) MustGet(e Entity) *T {
	ptr, err := s.Get(e)
	if err != nil {
		panic(err)
	}
	return ptr
}

// Has reports whether e has a component in this store.
func (s *Store[T]) Has(e Entity) bool {
	return s.lookup(e) != nil
}

// Len returns the number of stored components.
func (s *Store[T]) Len() int {
	return s.count
}

// Each calls fn for every stored component in entity order.
func (s *Store[T]) Each(fn func(Entity, *T)) {
	for bi, block := range s.blocks {
		if block == nil {
			continue
		}
		filled := block.filled
		for filled != 0 {
			bit := bits.TrailingZeros64(filled)
			filled &^= 1 << bit
			fn(Entity(bi*storeBlockSize+bit), &block.values[bit])
		}
	}
}

func (s *Store[T]) len() int {
	return s.count
}

func (s *Store[T]) pointer(e Entity) unsafe.Pointer {
	return unsafe.Pointer(s.lookup(e))
}

func (s *Store[T]) addFrom(e Entity, src unsafe.Pointer) {
	if _, err := s.Add(e, *(*T)(src)); err != nil {
		panic(err)
	}
}

// removeEntity drops the component while the world destroys e. The world owns the
// mask and family bookkeeping in that case.
func (s *Store[T]) removeEntity(e Entity) {
	if old, ok := s.take(e); ok {
		s.world.entities.unset(e, s.typ)
		if s.onRemove != nil {
			s.onRemove(e, &old)
		}
	}
}

// take clears the slot of e and returns the value it held.
func (s *Store[T]) take(e Entity) (T, bool) {
	var zero T
	bi, bit := int(e)/storeBlockSize, uint(e)%storeBlockSize
	if bi >= len(s.blocks) || s.blocks[bi] == nil {
		return zero, false
	}
	block := s.blocks[bi]
	if block.filled&(1<<bit) == 0 {
		return zero, false
	}
	old := block.values[bit]
	block.values[bit] = zero
	block.filled &^= 1 << bit
	s.count--
	return old, true
}

func (s *Store[T]) lookup(e Entity) *T {
	bi, bit := int(e)/storeBlockSize, uint(e)%storeBlockSize
	if bi >= len(s.blocks) || s.blocks[bi] == nil {
		return nil
	}
	block := s.blocks[bi]
	if block.filled&(1<<bit) == 0 {
		return nil
	}
	return &block.values[bit]
}

func (s *Store[T]) ensure(e Entity) (*storeBlock[T], uint) {
	bi, bit := int(e)/storeBlockSize, uint(e)%storeBlockSize
	for bi >= len(s.blocks) {
		s.blocks = append(s.blocks, nil)
	}
	if s.blocks[bi] == nil {
		s.blocks[bi] = &storeBlock[T]{}
	}
	return s.blocks[bi], bit
}

// Add adds value as the T component of e.
func Add[T any](w *World, e Entity, value T) (*T, error) {
	return GetStore[T](w).Add(e, value)
}

// Remove removes the T component of e, if any.
func Remove[T any](w *World, e Entity) error {
	return GetStore[T](w).Remove(e)
}

// Has reports whether e has a T component.
func Has[T any](w *World, e Entity) bool {
	return GetStore[T](w).Has(e)
}

// Get returns the T component of e.
func Get[T any](w *World, e Entity) (*T, error) {
	return GetStore[T](w).Get(e)
}
