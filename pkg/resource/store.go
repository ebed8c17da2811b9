package resource

import (
	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/observable"
)

// Store keeps the latest Resource per category. Each slot is an observable
// value so presentation code can follow one category's fetch state.
//
// The key domain is fixed to category.All(). Store does not serialise
// read-modify-write sequences; callers that need that hold their own lock.
type Store[T any] struct {
	slots map[category.Category]*observable.Value[Resource[T]]
}

// NewStore creates a Store with every category NotLoaded.
func NewStore[T any]() *Store[T] {
	slots := make(map[category.Category]*observable.Value[Resource[T]], len(category.All()))
	for _, c := range category.All() {
		slots[c] = observable.New(NotLoaded[T]())
	}
	return &Store[T]{slots: slots}
}

// Get returns the Resource for c. Unknown categories read as NotLoaded.
func (s *Store[T]) Get(c category.Category) Resource[T] {
	slot, ok := s.slots[c]
	if !ok {
		return NotLoaded[T]()
	}
	return slot.Get()
}

// Set replaces the Resource for c. Unknown categories are ignored.
func (s *Store[T]) Set(c category.Category, r Resource[T]) {
	if slot, ok := s.slots[c]; ok {
		slot.Set(r)
	}
}

// Observe returns the observable slot for c, or nil for an unknown category.
func (s *Store[T]) Observe(c category.Category) *observable.Value[Resource[T]] {
	return s.slots[c]
}
