package store

import "time"

// Planet list ordering fields.
const (
	OrderByName      = "name"
	OrderByCreatedAt = "created_at"
	OrderByUpdatedAt = "updated_at"
)

// Pagination limits for planet listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PlanetFilter narrows and orders a planet listing. Zero values mean
// "no constraint". Exact and contains matches may be combined; contains
// matches are case-insensitive.
type PlanetFilter struct {
	Name            string
	NameContains    string
	Climate         string
	ClimateContains string
	Terrain         string
	TerrainContains string

	PopulationGTE *int64
	PopulationLTE *int64

	CreatedAtGTE *time.Time
	CreatedAtLTE *time.Time
	UpdatedAtGTE *time.Time
	UpdatedAtLTE *time.Time

	// OrderBy is one of the OrderBy* constants; empty means name.
	OrderBy   string
	OrderDesc bool

	Limit  int
	Offset int
}

// Normalize clamps pagination and defaults ordering.
func (f *PlanetFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.OrderBy {
	case OrderByName, OrderByCreatedAt, OrderByUpdatedAt:
	default:
		f.OrderBy = OrderByName
	}
}

// ImportedPlanet is one record from the upstream catalog, applied as a
// single transactional upsert.
type ImportedPlanet struct {
	Name       string
	Population *int64
	Terrains   []string
	Climates   []string
}
