// Package resource models the state of a remote fetch and keeps one such
// state per category.
package resource

// State is the tag of a Resource.
type State int

const (
	// StateNotLoaded means no fetch has been started. It is the zero value.
	StateNotLoaded State = iota

	// StateLoading means a fetch is in flight.
	StateLoading

	// StateSuccess means the fetch completed with data.
	StateSuccess

	// StateFailure means the fetch completed with an error.
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateNotLoaded:
		return "not_loaded"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Resource is the tagged state of a remote fetch. Data is only meaningful
// in StateSuccess and Err only in StateFailure.
type Resource[T any] struct {
	State State
	Data  T
	Err   error
}

// NotLoaded returns a Resource in StateNotLoaded.
func NotLoaded[T any]() Resource[T] {
	return Resource[T]{}
}

// Loading returns a Resource in StateLoading.
func Loading[T any]() Resource[T] {
	return Resource[T]{State: StateLoading}
}

// Success returns a Resource holding data.
func Success[T any](data T) Resource[T] {
	return Resource[T]{State: StateSuccess, Data: data}
}

// Failure returns a Resource holding err.
func Failure[T any](err error) Resource[T] {
	return Resource[T]{State: StateFailure, Err: err}
}

func (r Resource[T]) IsNotLoaded() bool { return r.State == StateNotLoaded }
func (r Resource[T]) IsLoading() bool   { return r.State == StateLoading }
func (r Resource[T]) IsSuccess() bool   { return r.State == StateSuccess }
func (r Resource[T]) IsFailure() bool   { return r.State == StateFailure }

// Value returns the payload and true when r is a Success.
func (r Resource[T]) Value() (T, bool) {
	if r.State != StateSuccess {
		var zero T
		return zero, false
	}
	return r.Data, true
}
