package coordinator

import (
	"fmt"

	"github.com/Sternrassler/swapi-client/pkg/category"
)

// ErrInvalidCategory is returned when an intent names an unknown category.
var ErrInvalidCategory = category.ErrInvalidCategory

// FetchError wraps a DataProvider failure with the request it belonged to.
// Page is 0 for the initial category fetch.
type FetchError struct {
	Category category.Category
	Page     int
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("fetch %s page %d: %v", e.Category, e.Page, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Category, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
