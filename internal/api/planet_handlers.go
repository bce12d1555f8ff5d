package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/planetarium/planetarium-server/internal/catalog"
	"github.com/planetarium/planetarium-server/internal/domain"
	domainerrors "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/search"
	"github.com/planetarium/planetarium-server/internal/store"
)

func (s *Server) registerPlanetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPlanets",
		Method:      http.MethodGet,
		Path:        "/api/v1/planets",
		Summary:     "List planets",
		Description: "Returns planets matching the given filters",
		Tags:        []string{"Planets"},
	}, s.handleListPlanets)

	huma.Register(s.api, huma.Operation{
		OperationID: "createPlanet",
		Method:      http.MethodPost,
		Path:        "/api/v1/planets",
		Summary:     "Create planet",
		Description: "Creates a new planet",
		Tags:        []string{"Planets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreatePlanet)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchPlanets",
		Method:      http.MethodGet,
		Path:        "/api/v1/planets/search",
		Summary:     "Search planets",
		Description: "Full-text search over planet names, terrains and climates",
		Tags:        []string{"Planets"},
	}, s.handleSearchPlanets)

	huma.Register(s.api, huma.Operation{
		OperationID: "importPlanets",
		Method:      http.MethodPost,
		Path:        "/api/v1/planets/import",
		Summary:     "Import planets",
		Description: "Fetches the upstream catalog and upserts every planet",
		Tags:        []string{"Planets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleImportPlanets)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexPlanets",
		Method:      http.MethodPost,
		Path:        "/api/v1/planets/reindex",
		Summary:     "Reindex planets",
		Description: "Rebuilds the search index from the catalog",
		Tags:        []string{"Planets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReindexPlanets)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlanet",
		Method:      http.MethodGet,
		Path:        "/api/v1/planets/{name}",
		Summary:     "Get planet",
		Description: "Returns a planet by name",
		Tags:        []string{"Planets"},
	}, s.handleGetPlanet)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePlanet",
		Method:      http.MethodPut,
		Path:        "/api/v1/planets/{name}",
		Summary:     "Update planet",
		Description: "Replaces a planet's fields, renames included",
		Tags:        []string{"Planets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePlanet)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchPlanet",
		Method:      http.MethodPatch,
		Path:        "/api/v1/planets/{name}",
		Summary:     "Patch planet",
		Description: "Updates the given fields of a planet, leaving the rest unchanged",
		Tags:        []string{"Planets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePatchPlanet)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePlanet",
		Method:      http.MethodDelete,
		Path:        "/api/v1/planets/{name}",
		Summary:     "Delete planet",
		Description: "Deletes a planet by name",
		Tags:        []string{"Planets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePlanet)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTerrains",
		Method:      http.MethodGet,
		Path:        "/api/v1/terrains",
		Summary:     "List terrains",
		Description: "Returns all known terrain names",
		Tags:        []string{"Planets"},
	}, s.handleListTerrains)

	huma.Register(s.api, huma.Operation{
		OperationID: "listClimates",
		Method:      http.MethodGet,
		Path:        "/api/v1/climates",
		Summary:     "List climates",
		Description: "Returns all known climate names",
		Tags:        []string{"Planets"},
	}, s.handleListClimates)
}

// PlanetResponse contains planet data in API responses.
type PlanetResponse struct {
	ID         string    `json:"id" doc:"Planet ID"`
	Name       string    `json:"name" doc:"Unique planet name"`
	Population *int64    `json:"population" doc:"Population, null when unknown"`
	Terrains   []string  `json:"terrains" doc:"Terrain names"`
	Climates   []string  `json:"climates" doc:"Climate names"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update time"`
}

type ListPlanetsInput struct {
	Name            string `query:"name" doc:"Exact name match"`
	NameContains    string `query:"name_contains" doc:"Case-insensitive name substring"`
	Climate         string `query:"climate" doc:"Exact climate match"`
	ClimateContains string `query:"climate_contains" doc:"Case-insensitive climate substring"`
	Terrain         string `query:"terrain" doc:"Exact terrain match"`
	TerrainContains string `query:"terrain_contains" doc:"Case-insensitive terrain substring"`
	PopulationGTE   string `query:"population_gte" doc:"Minimum population; planets with unknown population never match"`
	PopulationLTE   string `query:"population_lte" doc:"Maximum population; planets with unknown population never match"`
	CreatedAtGTE    string `query:"created_at_gte" doc:"Created at or after, RFC 3339"`
	CreatedAtLTE    string `query:"created_at_lte" doc:"Created at or before, RFC 3339"`
	UpdatedAtGTE    string `query:"updated_at_gte" doc:"Updated at or after, RFC 3339"`
	UpdatedAtLTE    string `query:"updated_at_lte" doc:"Updated at or before, RFC 3339"`
	OrderBy         string `query:"order_by" enum:"name,created_at,updated_at" doc:"Sort field, name by default"`
	Desc            bool   `query:"desc" doc:"Sort descending"`
	Limit           int    `query:"limit" doc:"Page size, 10 by default, 100 max"`
	Offset          int    `query:"offset" doc:"Page offset"`
	Page            int    `query:"page" doc:"1-based page number; overrides offset when set"`
	PageSize        int    `query:"page_size" doc:"Page size when paging by number; overrides limit when set"`
}

type ListPlanetsResponse struct {
	Planets []PlanetResponse `json:"planets" doc:"Planets on this page"`
	Total   int              `json:"total" doc:"Total matching planets"`
	Limit   int              `json:"limit" doc:"Applied page size"`
	Offset  int              `json:"offset" doc:"Applied page offset"`
}

type ListPlanetsOutput struct {
	Body ListPlanetsResponse
}

type PlanetRequest struct {
	Name       string   `json:"name" validate:"required,max=200" doc:"Unique planet name"`
	Population *int64   `json:"population,omitempty" validate:"omitempty,gte=0" doc:"Population, omit when unknown"`
	Terrains   []string `json:"terrains,omitempty" validate:"dive,required" doc:"Terrain names"`
	Climates   []string `json:"climates,omitempty" validate:"dive,required" doc:"Climate names"`
}

type CreatePlanetInput struct {
	Authorization string `header:"Authorization"`
	Body          PlanetRequest
}

type PlanetOutput struct {
	Body PlanetResponse
}

type GetPlanetInput struct {
	Name string `path:"name" doc:"Planet name"`
}

type UpdatePlanetInput struct {
	Authorization string `header:"Authorization"`
	Name          string `path:"name" doc:"Planet name"`
	Body          PlanetRequest
}

type PlanetPatchRequest struct {
	Name       *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200" doc:"New planet name"`
	Population *int64    `json:"population,omitempty" validate:"omitempty,gte=0" doc:"New population"`
	Terrains   *[]string `json:"terrains,omitempty" validate:"omitempty,dive,required" doc:"New terrain names"`
	Climates   *[]string `json:"climates,omitempty" validate:"omitempty,dive,required" doc:"New climate names"`
}

type PatchPlanetInput struct {
	Authorization string `header:"Authorization"`
	Name          string `path:"name" doc:"Planet name"`
	Body          PlanetPatchRequest
}

type DeletePlanetInput struct {
	Authorization string `header:"Authorization"`
	Name          string `path:"name" doc:"Planet name"`
}

type SearchPlanetsInput struct {
	Query         string `query:"q" doc:"Search query"`
	MinPopulation int64  `query:"min_population" doc:"Minimum population, 0 for no bound"`
	MaxPopulation int64  `query:"max_population" doc:"Maximum population, 0 for no bound"`
	Limit         int    `query:"limit" doc:"Page size, 20 by default"`
	Offset        int    `query:"offset" doc:"Page offset"`
}

type SearchPlanetsOutput struct {
	Body search.SearchResult
}

type ImportPlanetsInput struct {
	Authorization string `header:"Authorization"`
}

type ImportPlanetsResponse struct {
	Fetched int `json:"fetched" doc:"Records fetched from upstream"`
	Created int `json:"created" doc:"Planets created"`
	Updated int `json:"updated" doc:"Planets updated"`
	Failed  int `json:"failed" doc:"Records that failed to apply"`
}

type ImportPlanetsOutput struct {
	Body ImportPlanetsResponse
}

type ReindexPlanetsInput struct {
	Authorization string `header:"Authorization"`
}

type ReindexPlanetsResponse struct {
	Indexed int `json:"indexed" doc:"Planets indexed"`
}

type ReindexPlanetsOutput struct {
	Body ReindexPlanetsResponse
}

type NamesResponse struct {
	Names []string `json:"names" doc:"Sorted names"`
}

type NamesOutput struct {
	Body NamesResponse
}

func mapPlanetResponse(p *domain.Planet) PlanetResponse {
	return PlanetResponse{
		ID:         p.ID,
		Name:       p.Name,
		Population: p.Population,
		Terrains:   p.Terrains,
		Climates:   p.Climates,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func planetParams(req PlanetRequest) catalog.PlanetParams {
	return catalog.PlanetParams{
		Name:       req.Name,
		Population: req.Population,
		Terrains:   req.Terrains,
		Climates:   req.Climates,
	}
}

// buildPlanetFilter converts query parameters into a store filter.
// Bounds arrive as strings so that absent and zero are distinguishable.
func buildPlanetFilter(input *ListPlanetsInput) (store.PlanetFilter, error) {
	filter := store.PlanetFilter{
		Name:            input.Name,
		NameContains:    input.NameContains,
		Climate:         input.Climate,
		ClimateContains: input.ClimateContains,
		Terrain:         input.Terrain,
		TerrainContains: input.TerrainContains,
		OrderBy:         input.OrderBy,
		OrderDesc:       input.Desc,
		Limit:           input.Limit,
		Offset:          input.Offset,
	}

	// page/page_size is the alternative pagination style; when present it
	// wins over limit/offset.
	if input.PageSize > 0 {
		filter.Limit = input.PageSize
	}
	if input.Page > 0 {
		size := filter.Limit
		if size <= 0 {
			size = store.DefaultPageSize
		}
		if size > store.MaxPageSize {
			size = store.MaxPageSize
		}
		filter.Offset = (input.Page - 1) * size
	}

	populationBounds := []struct {
		raw  string
		name string
		dest **int64
	}{
		{input.PopulationGTE, "population_gte", &filter.PopulationGTE},
		{input.PopulationLTE, "population_lte", &filter.PopulationLTE},
	}
	for _, b := range populationBounds {
		if b.raw == "" {
			continue
		}
		v, err := strconv.ParseInt(b.raw, 10, 64)
		if err != nil {
			return filter, domainerrors.Validationf("%s must be an integer", b.name)
		}
		*b.dest = &v
	}

	timeBounds := []struct {
		raw  string
		name string
		dest **time.Time
	}{
		{input.CreatedAtGTE, "created_at_gte", &filter.CreatedAtGTE},
		{input.CreatedAtLTE, "created_at_lte", &filter.CreatedAtLTE},
		{input.UpdatedAtGTE, "updated_at_gte", &filter.UpdatedAtGTE},
		{input.UpdatedAtLTE, "updated_at_lte", &filter.UpdatedAtLTE},
	}
	for _, b := range timeBounds {
		if b.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, b.raw)
		if err != nil {
			return filter, domainerrors.Validationf("%s must be an RFC 3339 timestamp", b.name)
		}
		*b.dest = &t
	}

	return filter, nil
}

// === Handlers ===

func (s *Server) handleListPlanets(ctx context.Context, input *ListPlanetsInput) (*ListPlanetsOutput, error) {
	filter, err := buildPlanetFilter(input)
	if err != nil {
		return nil, err
	}
	filter.Normalize()

	planets, total, err := s.services.Catalog.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]PlanetResponse, len(planets))
	for i, p := range planets {
		resp[i] = mapPlanetResponse(p)
	}

	return &ListPlanetsOutput{Body: ListPlanetsResponse{
		Planets: resp,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}}, nil
}

func (s *Server) handleCreatePlanet(ctx context.Context, input *CreatePlanetInput) (*PlanetOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	p, err := s.services.Catalog.Create(ctx, planetParams(input.Body))
	if err != nil {
		return nil, err
	}

	return &PlanetOutput{Body: mapPlanetResponse(p)}, nil
}

func (s *Server) handleGetPlanet(ctx context.Context, input *GetPlanetInput) (*PlanetOutput, error) {
	p, err := s.services.Catalog.Get(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	return &PlanetOutput{Body: mapPlanetResponse(p)}, nil
}

func (s *Server) handleUpdatePlanet(ctx context.Context, input *UpdatePlanetInput) (*PlanetOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	p, err := s.services.Catalog.Update(ctx, input.Name, planetParams(input.Body))
	if err != nil {
		return nil, err
	}

	return &PlanetOutput{Body: mapPlanetResponse(p)}, nil
}

func (s *Server) handlePatchPlanet(ctx context.Context, input *PatchPlanetInput) (*PlanetOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	p, err := s.services.Catalog.Patch(ctx, input.Name, catalog.PlanetPatch{
		Name:       input.Body.Name,
		Population: input.Body.Population,
		Terrains:   input.Body.Terrains,
		Climates:   input.Body.Climates,
	})
	if err != nil {
		return nil, err
	}

	return &PlanetOutput{Body: mapPlanetResponse(p)}, nil
}

func (s *Server) handleDeletePlanet(ctx context.Context, input *DeletePlanetInput) (*MessageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Catalog.Delete(ctx, input.Name); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Planet deleted"}}, nil
}

func (s *Server) handleSearchPlanets(ctx context.Context, input *SearchPlanetsInput) (*SearchPlanetsOutput, error) {
	result, err := s.services.Search.Search(ctx, search.SearchParams{
		Query:         input.Query,
		MinPopulation: input.MinPopulation,
		MaxPopulation: input.MaxPopulation,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &SearchPlanetsOutput{Body: *result}, nil
}

func (s *Server) handleImportPlanets(ctx context.Context, input *ImportPlanetsInput) (*ImportPlanetsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.services.Importer.Run(ctx)
	if err != nil {
		return nil, err
	}

	// Imports write through the store, so the search index has to catch up.
	if _, err := s.services.Catalog.ReindexAll(ctx); err != nil {
		s.logger.WithError(err).Warn("reindex after import failed")
	}

	return &ImportPlanetsOutput{Body: ImportPlanetsResponse{
		Fetched: result.Fetched,
		Created: result.Created,
		Updated: result.Updated,
		Failed:  result.Failed,
	}}, nil
}

func (s *Server) handleReindexPlanets(ctx context.Context, input *ReindexPlanetsInput) (*ReindexPlanetsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	indexed, err := s.services.Catalog.ReindexAll(ctx)
	if err != nil {
		return nil, err
	}

	return &ReindexPlanetsOutput{Body: ReindexPlanetsResponse{Indexed: indexed}}, nil
}

func (s *Server) handleListTerrains(ctx context.Context, _ *struct{}) (*NamesOutput, error) {
	names, err := s.store.ListTerrainNames(ctx)
	if err != nil {
		return nil, err
	}
	return &NamesOutput{Body: NamesResponse{Names: names}}, nil
}

func (s *Server) handleListClimates(ctx context.Context, _ *struct{}) (*NamesOutput, error) {
	names, err := s.store.ListClimateNames(ctx)
	if err != nil {
		return nil, err
	}
	return &NamesOutput{Body: NamesResponse{Names: names}}, nil
}
