package ecs

import (
	"fmt"
	"reflect"
	"slices"
)

type injectableKey struct {
	typ  reflect.Type
	name string
}

// Injectables holds externally supplied values systems consume while they are
// created, keyed by type and an optional name.
type Injectables struct {
	values map[injectableKey]any
	used   map[injectableKey]bool
}

// NewInjectables creates an empty set of injectables.
func NewInjectables() *Injectables {
	return &Injectables{
		values: make(map[injectableKey]any),
		used:   make(map[injectableKey]bool),
	}
}

// Provide registers value under its type T, replacing any previous value.
func Provide[T any](inj *Injectables, value T) {
	ProvideNamed(inj, "", value)
}

// ProvideNamed registers value under T and name.
func ProvideNamed[T any](inj *Injectables, name string, value T) {
	inj.values[injectableKey{typ: reflect.TypeFor[T](), name: name}] = value
}

// Len returns the number of provided values.
func (inj *Injectables) Len() int {
	return len(inj.values)
}

// Inject returns the world's injectable of type T.
func Inject[T any](w *World) (T, error) {
	return InjectNamed[T](w, "")
}

// InjectNamed returns the world's injectable of type T registered under name.
func InjectNamed[T any](w *World, name string) (T, error) {
	var zero T
	key := injectableKey{typ: reflect.TypeFor[T](), name: name}
	value, ok := w.injectables.values[key]
	if !ok {
		return zero, fmt.Errorf("ecs: %s: %w", key, ErrMissingInjectable)
	}
	w.injectables.used[key] = true
	return value.(T), nil
}

func (k injectableKey) String() string {
	if k.name == "" {
		return k.typ.String()
	}
	return fmt.Sprintf("%s %q", k.typ, k.name)
}

// unused returns the keys no system asked for.
func (inj *Injectables) unused() []string {
	var keys []string
	for key := range inj.values {
		if !inj.used[key] {
			keys = append(keys, key.String())
		}
	}
	slices.Sort(keys)
	return keys
}
