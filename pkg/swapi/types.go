package swapi

import "github.com/Sternrassler/swapi-client/pkg/category"

// Item is a single displayable record belonging to exactly one category.
type Item interface {
	// Category returns the kind this record belongs to.
	Category() category.Category

	// ID returns the canonical SWAPI URL of the record.
	ID() string

	// Title returns the display name.
	Title() string

	isItem()
}

// Character is a record of the SWAPI "people" resource.
type Character struct {
	Name      string   `json:"name"`
	Height    string   `json:"height"`
	Mass      string   `json:"mass"`
	HairColor string   `json:"hair_color"`
	SkinColor string   `json:"skin_color"`
	EyeColor  string   `json:"eye_color"`
	BirthYear string   `json:"birth_year"`
	Gender    string   `json:"gender"`
	Homeworld string   `json:"homeworld"`
	Films     []string `json:"films,omitempty"`
	URL       string   `json:"url"`
}

// Race is a record of the SWAPI "species" resource.
type Race struct {
	Name            string   `json:"name"`
	Classification  string   `json:"classification"`
	Designation     string   `json:"designation"`
	AverageHeight   string   `json:"average_height"`
	AverageLifespan string   `json:"average_lifespan"`
	Language        string   `json:"language"`
	Homeworld       string   `json:"homeworld"`
	People          []string `json:"people,omitempty"`
	URL             string   `json:"url"`
}

// Starship is a record of the SWAPI "starships" resource.
type Starship struct {
	Name             string `json:"name"`
	Model            string `json:"model"`
	Manufacturer     string `json:"manufacturer"`
	CostInCredits    string `json:"cost_in_credits"`
	Length           string `json:"length"`
	Crew             string `json:"crew"`
	Passengers       string `json:"passengers"`
	HyperdriveRating string `json:"hyperdrive_rating"`
	MGLT             string `json:"MGLT"`
	StarshipClass    string `json:"starship_class"`
	URL              string `json:"url"`
}

// Planet is a record of the SWAPI "planets" resource.
type Planet struct {
	Name           string   `json:"name"`
	RotationPeriod string   `json:"rotation_period"`
	OrbitalPeriod  string   `json:"orbital_period"`
	Diameter       string   `json:"diameter"`
	Climate        string   `json:"climate"`
	Gravity        string   `json:"gravity"`
	Terrain        string   `json:"terrain"`
	SurfaceWater   string   `json:"surface_water"`
	Population     string   `json:"population"`
	Residents      []string `json:"residents,omitempty"`
	URL            string   `json:"url"`
}

func (Character) Category() category.Category { return category.Character }
func (c Character) ID() string                { return c.URL }
func (c Character) Title() string             { return c.Name }
func (Character) isItem()                     {}

func (Race) Category() category.Category { return category.Race }
func (r Race) ID() string                { return r.URL }
func (r Race) Title() string             { return r.Name }
func (Race) isItem()                     {}

func (Starship) Category() category.Category { return category.Starship }
func (s Starship) ID() string                { return s.URL }
func (s Starship) Title() string             { return s.Name }
func (Starship) isItem()                     {}

func (Planet) Category() category.Category { return category.Planet }
func (p Planet) ID() string                { return p.URL }
func (p Planet) Title() string             { return p.Name }
func (Planet) isItem()                     {}

// Header is the pagination envelope SWAPI wraps every list response in.
type Header struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
}

// List is a category-specific list payload.
type List interface {
	// Kind returns the category of the records in the list.
	Kind() category.Category

	// Meta returns the pagination envelope.
	Meta() Header

	isList()
}

// CharacterList is the payload of GET /api/people/.
type CharacterList struct {
	Header
	Results []Character `json:"results"`
}

// RaceList is the payload of GET /api/species/.
type RaceList struct {
	Header
	Results []Race `json:"results"`
}

// StarshipList is the payload of GET /api/starships/.
type StarshipList struct {
	Header
	Results []Starship `json:"results"`
}

// PlanetList is the payload of GET /api/planets/.
type PlanetList struct {
	Header
	Results []Planet `json:"results"`
}

func (CharacterList) Kind() category.Category { return category.Character }
func (l CharacterList) Meta() Header          { return l.Header }
func (CharacterList) isList()                 {}

func (RaceList) Kind() category.Category { return category.Race }
func (l RaceList) Meta() Header          { return l.Header }
func (RaceList) isList()                 {}

func (StarshipList) Kind() category.Category { return category.Starship }
func (l StarshipList) Meta() Header          { return l.Header }
func (StarshipList) isList()                 {}

func (PlanetList) Kind() category.Category { return category.Planet }
func (l PlanetList) Meta() Header          { return l.Header }
func (PlanetList) isList()                 {}

// PageResponse is one page of items plus the continuation cursor.
// An empty or blank NextCursor marks the end of pagination.
type PageResponse struct {
	Items      []Item
	NextCursor string
}
