// Package aggregator flattens category-specific SWAPI payloads into the single
// ordered item sequence the browser displays.
package aggregator

import (
	"github.com/Sternrassler/swapi-client/pkg/resource"
	"github.com/Sternrassler/swapi-client/pkg/swapi"
)

// Project extracts the records of a list payload as generic items, in
// response order. Pointer payloads are accepted; nil and unknown payloads
// project to an empty sequence.
func Project(list swapi.List) []swapi.Item {
	switch l := deref(list).(type) {
	case swapi.CharacterList:
		return items(l.Results)
	case swapi.RaceList:
		return items(l.Results)
	case swapi.StarshipList:
		return items(l.Results)
	case swapi.PlanetList:
		return items(l.Results)
	default:
		return []swapi.Item{}
	}
}

// deref returns the value form of a pointer payload. A nil pointer becomes
// a nil List.
func deref(list swapi.List) swapi.List {
	switch l := list.(type) {
	case *swapi.CharacterList:
		if l == nil {
			return nil
		}
		return *l
	case *swapi.RaceList:
		if l == nil {
			return nil
		}
		return *l
	case *swapi.StarshipList:
		if l == nil {
			return nil
		}
		return *l
	case *swapi.PlanetList:
		if l == nil {
			return nil
		}
		return *l
	}
	return list
}

// ProjectResource projects a Success payload; every other state yields an
// empty sequence.
func ProjectResource(r resource.Resource[swapi.List]) []swapi.Item {
	list, ok := r.Value()
	if !ok {
		return []swapi.Item{}
	}
	return Project(list)
}

// Append returns existing followed by incoming in a new slice. Order and
// duplicates are preserved; existing is never modified.
func Append(existing, incoming []swapi.Item) []swapi.Item {
	out := make([]swapi.Item, 0, len(existing)+len(incoming))
	out = append(out, existing...)
	return append(out, incoming...)
}

// PageOf converts a list payload into a page response.
func PageOf(list swapi.List) swapi.PageResponse {
	list = deref(list)
	page := swapi.PageResponse{Items: Project(list)}
	if list != nil {
		page.NextCursor = list.Meta().Next
	}
	return page
}

func items[T swapi.Item](records []T) []swapi.Item {
	out := make([]swapi.Item, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
