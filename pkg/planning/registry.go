package planning

import "sort"

// Named is implemented by every entity stored in a registry.
type Named interface {
	Name() string
}

// Registry owns all entities of one category, keyed by unique name.
// Parent/child edges between entities are plain references; the registry is
// the single owner.
type Registry[T Named] struct {
	byName map[string]T
	names  []string
	sorted bool
}

// NewRegistry creates an empty registry.
func NewRegistry[T Named]() *Registry[T] {
	return &Registry[T]{byName: make(map[string]T)}
}

// Add stores an entity. Adding a second entity with the same name is a data
// error.
func (r *Registry[T]) Add(e T) error {
	name := e.Name()
	if name == "" {
		return NewDataError("entity name must not be empty")
	}
	if _, ok := r.byName[name]; ok {
		return NewDataError("entity '%s' already exists", name)
	}
	r.byName[name] = e
	r.names = append(r.names, name)
	r.sorted = false
	return nil
}

// Find resolves a name to an entity.
func (r *Registry[T]) Find(name string) (T, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Remove drops an entity from the registry. Removing an unknown name is a
// no-op.
func (r *Registry[T]) Remove(name string) {
	if _, ok := r.byName[name]; !ok {
		return
	}
	delete(r.byName, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored entities.
func (r *Registry[T]) Len() int { return len(r.byName) }

// Each calls fn for every entity in ascending name order. Iteration stops
// when fn returns false.
func (r *Registry[T]) Each(fn func(T) bool) {
	if !r.sorted {
		sort.Strings(r.names)
		r.sorted = true
	}
	for _, n := range r.names {
		e, ok := r.byName[n]
		if !ok {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// All returns the entities in ascending name order.
func (r *Registry[T]) All() []T {
	out := make([]T, 0, len(r.byName))
	r.Each(func(e T) bool {
		out = append(out, e)
		return true
	})
	return out
}
