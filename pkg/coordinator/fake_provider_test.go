package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/swapi"
)

type pageKey struct {
	category category.Category
	page     int
}

// fakeProvider serves canned lists and pages. A category listed in gates
// blocks its initial fetch until the gate channel is closed.
type fakeProvider struct {
	mu sync.Mutex

	lists     map[category.Category]swapi.List
	listErrs  map[category.Category]error
	pages     map[pageKey]swapi.PageResponse
	pageErrs  map[pageKey]error
	gates     map[category.Category]chan struct{}
	pageGate  chan struct{}
	pageStart chan struct{}

	categoryCalls map[category.Category]int
	pageCalls     []pageKey
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		lists:         make(map[category.Category]swapi.List),
		listErrs:      make(map[category.Category]error),
		pages:         make(map[pageKey]swapi.PageResponse),
		pageErrs:      make(map[pageKey]error),
		gates:         make(map[category.Category]chan struct{}),
		categoryCalls: make(map[category.Category]int),
	}
}

func (f *fakeProvider) Category(ctx context.Context, c category.Category) (swapi.List, error) {
	f.mu.Lock()
	f.categoryCalls[c]++
	gate := f.gates[c]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErrs[c]; err != nil {
		return nil, err
	}
	return f.lists[c], nil
}

func (f *fakeProvider) CategoryPage(ctx context.Context, c category.Category, page int) (swapi.PageResponse, error) {
	key := pageKey{category: c, page: page}

	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, key)
	gate := f.pageGate
	started := f.pageStart
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return swapi.PageResponse{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pageErrs[key]; err != nil {
		return swapi.PageResponse{}, err
	}
	resp, ok := f.pages[key]
	if !ok {
		return swapi.PageResponse{}, fmt.Errorf("no page %d for %s", page, c)
	}
	return resp, nil
}

func (f *fakeProvider) gate(c category.Category) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[c] = ch
	return ch
}

func (f *fakeProvider) categoryCallCount(c category.Category) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.categoryCalls[c]
}

func (f *fakeProvider) pageCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pageCalls)
}

func characters(names ...string) []swapi.Item {
	out := make([]swapi.Item, len(names))
	for i, n := range names {
		out[i] = swapi.Character{Name: n, URL: "https://swapi.dev/api/people/" + n + "/"}
	}
	return out
}

func characterList(names ...string) swapi.CharacterList {
	l := swapi.CharacterList{Header: swapi.Header{Count: len(names)}}
	for _, n := range names {
		l.Results = append(l.Results, swapi.Character{Name: n, URL: "https://swapi.dev/api/people/" + n + "/"})
	}
	return l
}

func raceList(names ...string) swapi.RaceList {
	l := swapi.RaceList{Header: swapi.Header{Count: len(names)}}
	for _, n := range names {
		l.Results = append(l.Results, swapi.Race{Name: n})
	}
	return l
}
