package pagination

import (
	"strings"

	"github.com/Sternrassler/swapi-client/pkg/observable"
	"github.com/rs/zerolog/log"
)

// FirstPage is the page number every session starts at.
const FirstPage = 1

// State is a point-in-time copy of a Cursor.
type State struct {
	Page     int  `json:"page"`
	HasNext  bool `json:"has_next"`
	ListSize int  `json:"list_size"`
}

// Cursor holds the pagination state of one browsing session.
type Cursor struct {
	page     *observable.Value[int]
	hasNext  *observable.Value[bool]
	listSize *observable.Value[int]
}

// NewCursor creates a Cursor in its reset state.
func NewCursor() *Cursor {
	return &Cursor{
		page:     observable.New(FirstPage),
		hasNext:  observable.New(true),
		listSize: observable.New(0),
	}
}

// Reset starts a new session: page 1, hasNext true, no items.
func (c *Cursor) Reset() {
	c.page.Set(FirstPage)
	c.listSize.Set(0)
	c.hasNext.Set(true)
}

// RecordPage stores whether the most recent page response had a successor.
func (c *Cursor) RecordPage(hasNext bool) {
	c.hasNext.Set(hasNext)
}

// Advance moves to the next page number. It does nothing once the last page
// has been seen, so stale "next" events from the UI are harmless.
func (c *Cursor) Advance() {
	if !c.hasNext.Get() {
		log.Debug().
			Int("page", c.page.Get()).
			Msg("Advance ignored: no further pages")
		return
	}
	c.page.Update(func(p int) int { return p + 1 })
}

// SetListSize records the number of collected items. Negative values clamp to 0.
func (c *Cursor) SetListSize(n int) {
	if n < 0 {
		n = 0
	}
	c.listSize.Set(n)
}

// State returns a snapshot of all fields.
func (c *Cursor) State() State {
	return State{
		Page:     c.page.Get(),
		HasNext:  c.hasNext.Get(),
		ListSize: c.listSize.Get(),
	}
}

// Page returns the observable page number.
func (c *Cursor) Page() *observable.Value[int] { return c.page }

// HasNext returns the observable continuation flag.
func (c *Cursor) HasNext() *observable.Value[bool] { return c.hasNext }

// ListSize returns the observable item count.
func (c *Cursor) ListSize() *observable.Value[int] { return c.listSize }

// HasNextCursor reports whether a continuation cursor is present.
// Empty and whitespace-only cursors count as absent.
func HasNextCursor(next string) bool {
	return strings.TrimSpace(next) != ""
}
