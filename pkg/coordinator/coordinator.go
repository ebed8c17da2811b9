// Package coordinator implements the category browsing state machine.
//
// A Coordinator owns one Resource per category, the pagination cursor of the
// active category and the aggregated item view. Presentation code sends
// intents (SwitchCategory, LoadNextPage, IncrementPage) and follows the
// observable outputs; it never mutates state directly.
//
// Transitions are serialised by a mutex. Provider calls run without the lock
// held, so a fetch never blocks other intents.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/swapi-client/pkg/aggregator"
	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/logging"
	"github.com/Sternrassler/swapi-client/pkg/observable"
	"github.com/Sternrassler/swapi-client/pkg/pagination"
	"github.com/Sternrassler/swapi-client/pkg/resource"
	"github.com/Sternrassler/swapi-client/pkg/swapi"
	"github.com/rs/zerolog"
)

// DataProvider performs the remote fetches for the coordinator.
type DataProvider interface {
	// Category fetches the first page of c as a list payload.
	Category(ctx context.Context, c category.Category) (swapi.List, error)

	// CategoryPage fetches page number page of c.
	CategoryPage(ctx context.Context, c category.Category, page int) (swapi.PageResponse, error)
}

// Config holds the coordinator configuration.
type Config struct {
	// Provider performs the fetches (REQUIRED).
	Provider DataProvider

	// InitialCategory is the active category before the first switch.
	InitialCategory category.Category

	// FetchTimeout bounds background initial fetches. Zero means no timeout.
	FetchTimeout time.Duration
}

// DefaultConfig returns a configuration starting on the character list.
func DefaultConfig(provider DataProvider) Config {
	return Config{
		Provider:        provider,
		InitialCategory: category.Character,
		FetchTimeout:    30 * time.Second,
	}
}

// Snapshot is a consistent copy of every coordinator output.
type Snapshot struct {
	ActiveCategory category.Category                    `json:"active_category"`
	Loading        bool                                 `json:"loading"`
	Pagination     pagination.State                     `json:"pagination"`
	Items          []swapi.Item                         `json:"items"`
	Resources      map[category.Category]resource.State `json:"resources"`
	PageStatus     resource.State                       `json:"page_status"`
}

// Coordinator is the category browsing state machine.
type Coordinator struct {
	mu       sync.Mutex
	provider DataProvider
	config   Config
	logger   zerolog.Logger

	store      *resource.Store[swapi.List]
	cursor     *pagination.Cursor
	active     *observable.Value[category.Category]
	loading    *observable.Value[bool]
	items      *observable.Value[[]swapi.Item]
	pageStatus *observable.Value[resource.Resource[swapi.PageResponse]]

	// generation changes whenever the active category changes, so page
	// responses from an earlier session can be recognised and dropped.
	generation uint64

	// paged is set once LoadNextPage appends within the current session.
	// A late initial fetch then fills its slot without replacing the view.
	paged bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Coordinator with every category NotLoaded.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}

	if cfg.InitialCategory == "" {
		cfg.InitialCategory = category.Character
	}
	if !cfg.InitialCategory.Valid() {
		return nil, fmt.Errorf("initial category: %w: %q", ErrInvalidCategory, cfg.InitialCategory)
	}

	if cfg.FetchTimeout < 0 {
		return nil, fmt.Errorf("fetch_timeout must be >= 0 (got %s)", cfg.FetchTimeout)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		provider:   cfg.Provider,
		config:     cfg,
		logger:     logging.NewLogger("coordinator"),
		store:      resource.NewStore[swapi.List](),
		cursor:     pagination.NewCursor(),
		active:     observable.New(cfg.InitialCategory),
		loading:    observable.New(false),
		items:      observable.New([]swapi.Item{}),
		pageStatus: observable.New(resource.NotLoaded[swapi.PageResponse]()),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// SwitchCategory makes target the active category.
//
// Switching to a different category clears the item view. A NotLoaded target
// starts its initial fetch in the background; a Success target is shown from
// the store without a provider call; Loading and Failure targets are left as
// they are. The pagination cursor is reset in every case.
//
// listSize is set to the length of the resulting view: 0 after a fresh switch,
// the cached item count when a Success target is shown, so that listSize
// always equals len(items).
//
// A Failure target stays failed until Retry is called.
func (c *Coordinator) SwitchCategory(target category.Category) error {
	if !target.Valid() {
		return fmt.Errorf("switch category: %w: %q", ErrInvalidCategory, target)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if target != c.active.Get() {
		c.items.Set([]swapi.Item{})
		c.generation++
	}

	current := c.store.Get(target)
	source := current.State.String()
	switch current.State {
	case resource.StateNotLoaded:
		c.store.Set(target, resource.Loading[swapi.List]())
		c.startInitialFetch(target)
		source = "fetch"
	case resource.StateSuccess:
		c.items.Set(aggregator.ProjectResource(current))
		source = "cache"
	}

	c.active.Set(target)
	c.cursor.Reset()
	c.paged = false
	c.setListSize()

	categorySwitchesTotal.WithLabelValues(target.String(), source).Inc()
	c.logger.Debug().
		Str("category", target.String()).
		Str("source", source).
		Int("items", len(c.items.Get())).
		Msg("Switched category")

	return nil
}

// LoadNextPage fetches the cursor's current page of the active category and
// appends it to the item view. It blocks until the fetch completes.
//
// It is a no-op when the last page has been seen or a page fetch is already
// in flight. A failed fetch is published on PageStatus and returned as a
// *FetchError; the loading flag is cleared either way. A response that
// arrives after the active category changed is discarded.
func (c *Coordinator) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	state := c.cursor.State()
	if !state.HasNext || state.Page < pagination.FirstPage || c.loading.Get() {
		c.mu.Unlock()
		c.logger.Debug().
			Int("page", state.Page).
			Bool("has_next", state.HasNext).
			Msg("LoadNextPage ignored")
		return nil
	}

	target := c.active.Get()
	generation := c.generation
	c.loading.Set(true)
	c.pageStatus.Set(resource.Loading[swapi.PageResponse]())
	c.mu.Unlock()

	c.logger.Debug().
		Str("category", target.String()).
		Int("page", state.Page).
		Msg("Loading page")

	start := time.Now()
	resp, err := c.provider.CategoryPage(ctx, target, state.Page)
	fetchDuration.WithLabelValues("page").Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.loading.Set(false)

	if err != nil {
		fetchErr := &FetchError{Category: target, Page: state.Page, Err: err}
		c.pageStatus.Set(resource.Failure[swapi.PageResponse](fetchErr))
		fetchesTotal.WithLabelValues(target.String(), "page", "failure").Inc()
		c.logger.Warn().
			Err(err).
			Str("category", target.String()).
			Int("page", state.Page).
			Msg("Page fetch failed")
		return fetchErr
	}

	if generation != c.generation {
		c.pageStatus.Set(resource.NotLoaded[swapi.PageResponse]())
		fetchesTotal.WithLabelValues(target.String(), "page", "stale").Inc()
		c.logger.Debug().
			Str("category", target.String()).
			Int("page", state.Page).
			Msg("Discarding page from previous session")
		return nil
	}

	c.cursor.RecordPage(pagination.HasNextCursor(resp.NextCursor))
	c.items.Set(aggregator.Append(c.items.Get(), resp.Items))
	c.paged = true
	c.setListSize()
	c.pageStatus.Set(resource.Success(resp))
	fetchesTotal.WithLabelValues(target.String(), "page", "success").Inc()

	c.logger.Debug().
		Str("category", target.String()).
		Int("page", state.Page).
		Int("received", len(resp.Items)).
		Bool("has_next", c.cursor.HasNext().Get()).
		Msg("Page appended")

	return nil
}

// IncrementPage advances the cursor to the next page number. It is not
// coupled to LoadNextPage; callers decide the order.
func (c *Coordinator) IncrementPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor.Advance()
}

// Retry clears a failed category so it is fetched again. When target is the
// active category the fetch starts immediately; otherwise on the next switch.
// Retry does nothing unless target is in Failure.
func (c *Coordinator) Retry(target category.Category) error {
	if !target.Valid() {
		return fmt.Errorf("retry: %w: %q", ErrInvalidCategory, target)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.Get(target).IsFailure() {
		return nil
	}

	if target != c.active.Get() {
		c.store.Set(target, resource.NotLoaded[swapi.List]())
		return nil
	}

	c.store.Set(target, resource.Loading[swapi.List]())
	c.startInitialFetch(target)
	c.logger.Info().Str("category", target.String()).Msg("Retrying category fetch")
	return nil
}

// startInitialFetch runs the first-page fetch of target in the background.
// Callers hold c.mu and have already set the slot to Loading.
func (c *Coordinator) startInitialFetch(target category.Category) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx := c.ctx
		if c.config.FetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.config.FetchTimeout)
			defer cancel()
		}

		start := time.Now()
		list, err := c.provider.Category(ctx, target)
		fetchDuration.WithLabelValues("initial").Observe(time.Since(start).Seconds())

		c.completeInitialFetch(target, list, err)
	}()
}

// completeInitialFetch stores the outcome in target's own slot and refreshes
// the view if target is still active and no page has been appended since the
// switch.
func (c *Coordinator) completeInitialFetch(target category.Category, list swapi.List, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.store.Set(target, resource.Failure[swapi.List](&FetchError{Category: target, Err: err}))
		fetchesTotal.WithLabelValues(target.String(), "initial", "failure").Inc()
		c.logger.Warn().
			Err(err).
			Str("category", target.String()).
			Msg("Category fetch failed")
		return
	}

	r := resource.Success(list)
	c.store.Set(target, r)
	fetchesTotal.WithLabelValues(target.String(), "initial", "success").Inc()

	active := target == c.active.Get()
	if active && !c.paged {
		c.items.Set(aggregator.ProjectResource(r))
		c.setListSize()
	}

	c.logger.Debug().
		Str("category", target.String()).
		Bool("active", active).
		Bool("paged", c.paged).
		Msg("Category fetch complete")
}

// setListSize keeps listSize equal to the length of the item view.
func (c *Coordinator) setListSize() {
	n := len(c.items.Get())
	c.cursor.SetListSize(n)
	itemsDisplayed.Set(float64(n))
}

// Wait blocks until all background fetches have completed.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight background fetches and waits for them to finish.
func (c *Coordinator) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

// Snapshot returns a consistent copy of all outputs.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	resources := make(map[category.Category]resource.State, len(category.All()))
	for _, cat := range category.All() {
		resources[cat] = c.store.Get(cat).State
	}

	return Snapshot{
		ActiveCategory: c.active.Get(),
		Loading:        c.loading.Get(),
		Pagination:     c.cursor.State(),
		Items:          c.items.Get(),
		Resources:      resources,
		PageStatus:     c.pageStatus.Get().State,
	}
}

// ActiveCategory returns the observable active category.
func (c *Coordinator) ActiveCategory() *observable.Value[category.Category] { return c.active }

// Loading returns the observable page-loading flag.
func (c *Coordinator) Loading() *observable.Value[bool] { return c.loading }

// Page returns the observable page number.
func (c *Coordinator) Page() *observable.Value[int] { return c.cursor.Page() }

// HasNext returns the observable continuation flag.
func (c *Coordinator) HasNext() *observable.Value[bool] { return c.cursor.HasNext() }

// ListSize returns the observable item count.
func (c *Coordinator) ListSize() *observable.Value[int] { return c.cursor.ListSize() }

// Items returns the observable aggregated view. Published slices are never
// modified afterwards.
func (c *Coordinator) Items() *observable.Value[[]swapi.Item] { return c.items }

// Resource returns the observable fetch state of cat, or nil for an unknown
// category.
func (c *Coordinator) Resource(cat category.Category) *observable.Value[resource.Resource[swapi.List]] {
	return c.store.Observe(cat)
}

// PageStatus returns the observable state of the latest page fetch.
func (c *Coordinator) PageStatus() *observable.Value[resource.Resource[swapi.PageResponse]] {
	return c.pageStatus
}
