// Package category defines the closed set of SWAPI item kinds the browser
// manages in parallel.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory is returned for any value outside the four known kinds.
var ErrInvalidCategory = errors.New("invalid category")

// Category identifies one of the independently paged item kinds.
type Category string

const (
	// Character maps to the SWAPI "people" resource.
	Character Category = "character"

	// Race maps to the SWAPI "species" resource.
	Race Category = "race"

	// Starship maps to the SWAPI "starships" resource.
	Starship Category = "starship"

	// Planet maps to the SWAPI "planets" resource.
	Planet Category = "planet"
)

var resourcePaths = map[Category]string{
	Character: "people",
	Race:      "species",
	Starship:  "starships",
	Planet:    "planets",
}

// All returns every category in display order.
func All() []Category {
	return []Category{Character, Race, Starship, Planet}
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	_, ok := resourcePaths[c]
	return ok
}

// ResourcePath returns the SWAPI collection name for c, e.g. "people".
// Returns an empty string for an invalid category.
func (c Category) ResourcePath() string {
	return resourcePaths[c]
}

func (c Category) String() string {
	return string(c)
}

// Parse converts user input into a Category. It accepts both the category
// name ("character") and the SWAPI collection name ("people"), case-insensitive.
func Parse(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c := Category(name); c.Valid() {
		return c, nil
	}
	for c, path := range resourcePaths {
		if path == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse, so config
// files and request bodies may use either naming.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
