package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View gives typed access to several components of an entity at once.
// The type T must be a struct whose fields are pointers to registered component types.
// Embedded fields are always required; named fields can be marked optional with the
// `ecs:"optional"` struct tag and are nil when the component is absent.
type View[T any] struct {
	world       *World
	types       []ComponentType
	optional    []bool
	fieldOffset []uintptr
	family      *Family
}

// NewView creates a view for the struct type T. It panics if T is not a struct of
// pointers to registered component types.
func NewView[T any](w *World) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{
		world:       w,
		types:       make([]ComponentType, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	var def FamilyDef
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		componentType, ok := w.registry.types[field.Type.Elem()]
		if !ok {
			panic("component type " + field.Type.Elem().String() + " not registered")
		}

		// Embedded fields are always required
		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		v.types = append(v.types, componentType)
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
		if !isOptional {
			def = def.All(componentType)
		}
	}

	v.family = w.Family(def)
	return v
}

// Family returns the family of entities having every required component.
func (v *View[T]) Family() *Family {
	return v.family
}

// Fill populates ptr with the components of e. It returns false if e is missing a
// required component.
func (v *View[T]) Fill(e Entity, ptr *T) bool {
	if !v.world.entities.contains(e) {
		return false
	}

	structPtr := unsafe.Pointer(ptr)
	for i, componentType := range v.types {
		fieldPtr := unsafe.Add(structPtr, v.fieldOffset[i])
		component := v.world.storeFor(componentType).pointer(e)
		if component == nil && !v.optional[i] {
			return false
		}
		*(*unsafe.Pointer)(fieldPtr) = component
	}
	return true
}

// Get returns the populated view of e, or nil if e lacks a required component.
func (v *View[T]) Get(e Entity) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// Iter yields every member of the view's family with its populated view.
// Structural changes made while iterating are applied when the iteration ends.
func (v *View[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		v.world.beginBatch()
		defer v.world.endBatch()

		f := v.family
		f.compact()
		f.iterating++
		defer func() { f.iterating-- }()

		var result T
		for _, e := range f.entities {
			if e == tombstone || !v.Fill(e, &result) {
				continue
			}
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values yields the populated views without their entities.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates an entity with a copy of every non-nil component in data.
// It panics if a required component is nil.
func (v *View[T]) Spawn(data T) Entity {
	structPtr := unsafe.Pointer(&data)
	for i := range v.types {
		if *(*unsafe.Pointer)(unsafe.Add(structPtr, v.fieldOffset[i])) == nil && !v.optional[i] {
			panic("required component is nil in View.Spawn")
		}
	}

	return v.world.Entity(func(e Entity) {
		for i, componentType := range v.types {
			src := *(*unsafe.Pointer)(unsafe.Add(structPtr, v.fieldOffset[i]))
			if src == nil {
				continue
			}
			v.world.storeFor(componentType).addFrom(e, src)
		}
	})
}
