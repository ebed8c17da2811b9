// Package repository loads SWAPI list pages through the HTTP client and
// decodes them into the typed payloads of package swapi.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/swapi-client/pkg/aggregator"
	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/client"
	"github.com/Sternrassler/swapi-client/pkg/logging"
	"github.com/Sternrassler/swapi-client/pkg/swapi"
	"github.com/rs/zerolog"
)

// Repository fetches category lists from SWAPI.
type Repository struct {
	client *client.Client
	logger zerolog.Logger
}

// New creates a repository on top of c.
func New(c *client.Client) *Repository {
	return &Repository{
		client: c,
		logger: logging.NewLogger("repository"),
	}
}

// Category fetches the first page of c's list endpoint.
func (r *Repository) Category(ctx context.Context, c category.Category) (swapi.List, error) {
	return r.fetch(ctx, c, nil)
}

// CategoryPage fetches page of c's list endpoint.
func (r *Repository) CategoryPage(ctx context.Context, c category.Category, page int) (swapi.PageResponse, error) {
	if page < 1 {
		return swapi.PageResponse{}, fmt.Errorf("page must be >= 1 (got %d)", page)
	}

	list, err := r.fetch(ctx, c, url.Values{"page": {strconv.Itoa(page)}})
	if err != nil {
		return swapi.PageResponse{}, err
	}
	return aggregator.PageOf(list), nil
}

func (r *Repository) fetch(ctx context.Context, c category.Category, query url.Values) (swapi.List, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", category.ErrInvalidCategory, string(c))
	}

	path := c.ResourcePath() + "/"
	start := time.Now()

	resp, err := r.client.Get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	list, err := decode(c, json.NewDecoder(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	r.logger.Debug().
		Str("category", c.String()).
		Str("page", query.Get("page")).
		Int("status", resp.StatusCode).
		Int("results", len(aggregator.Project(list))).
		Dur("duration", time.Since(start)).
		Msg("Fetched category list")

	return list, nil
}

func decode(c category.Category, dec *json.Decoder) (swapi.List, error) {
	switch c {
	case category.Character:
		return decodeAs[swapi.CharacterList](dec)
	case category.Race:
		return decodeAs[swapi.RaceList](dec)
	case category.Starship:
		return decodeAs[swapi.StarshipList](dec)
	case category.Planet:
		return decodeAs[swapi.PlanetList](dec)
	default:
		return nil, fmt.Errorf("%w: %q", category.ErrInvalidCategory, string(c))
	}
}

func decodeAs[L swapi.List](dec *json.Decoder) (swapi.List, error) {
	var list L
	if err := dec.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}
