package pagination

import "testing"

func TestNewCursor(t *testing.T) {
	c := NewCursor()
	want := State{Page: 1, HasNext: true, ListSize: 0}
	if got := c.State(); got != want {
		t.Errorf("NewCursor().State() = %+v, want %+v", got, want)
	}
}

func TestCursor_Advance(t *testing.T) {
	c := NewCursor()

	c.Advance()
	c.Advance()
	if got := c.Page().Get(); got != 3 {
		t.Errorf("Page after two advances = %d, want 3", got)
	}

	c.RecordPage(false)
	c.Advance()
	if got := c.Page().Get(); got != 3 {
		t.Errorf("Advance past last page changed page to %d", got)
	}
}

func TestCursor_Reset(t *testing.T) {
	c := NewCursor()
	c.Advance()
	c.RecordPage(false)
	c.SetListSize(42)

	c.Reset()

	want := State{Page: 1, HasNext: true, ListSize: 0}
	if got := c.State(); got != want {
		t.Errorf("State after Reset = %+v, want %+v", got, want)
	}
}

func TestCursor_SetListSize(t *testing.T) {
	c := NewCursor()

	c.SetListSize(10)
	if got := c.ListSize().Get(); got != 10 {
		t.Errorf("ListSize = %d, want 10", got)
	}

	c.SetListSize(-5)
	if got := c.ListSize().Get(); got != 0 {
		t.Errorf("negative ListSize should clamp to 0, got %d", got)
	}
}

func TestHasNextCursor(t *testing.T) {
	tests := []struct {
		name     string
		next     string
		expected bool
	}{
		{"absent", "", false},
		{"blank", "   ", false},
		{"url", "https://swapi.dev/api/people/?page=2", true},
		{"page number", "2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasNextCursor(tt.next); got != tt.expected {
				t.Errorf("HasNextCursor(%q) = %v, want %v", tt.next, got, tt.expected)
			}
		})
	}
}
