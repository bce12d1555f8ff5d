package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPlanet(t *testing.T, ts *testServer, token, name string, population int64, terrains, climates []string) PlanetResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/planets", "Authorization: "+token, map[string]any{
		"name":       name,
		"population": population,
		"terrains":   terrains,
		"climates":   climates,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[PlanetResponse](t, resp.Body.Bytes())
	require.True(t, envelope.Success)
	return envelope.Data
}

func TestPlanetCRUD(t *testing.T) {
	ts := setupTestServer(t, "")
	token := ts.registerAndLogin(t, "curator")

	created := createTestPlanet(t, ts, token, "Earth", 8_000_000_000, []string{"oceans", "forests"}, []string{"temperate"})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Earth", created.Name)
	assert.ElementsMatch(t, []string{"oceans", "forests"}, created.Terrains)

	// Read back by name.
	resp := ts.api.Get("/api/v1/planets/Earth")
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeEnvelope[PlanetResponse](t, resp.Body.Bytes())
	assert.Equal(t, created.ID, got.Data.ID)
	require.NotNil(t, got.Data.Population)
	assert.Equal(t, int64(8_000_000_000), *got.Data.Population)

	// Duplicate name conflicts.
	resp = ts.api.Post("/api/v1/planets", "Authorization: "+token, map[string]any{"name": "Earth"})
	require.Equal(t, http.StatusConflict, resp.Code)

	// Rename with a full replace.
	resp = ts.api.Put("/api/v1/planets/Earth", "Authorization: "+token, map[string]any{
		"name":     "Terra",
		"terrains": []string{"oceans"},
		"climates": []string{"temperate"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	renamed := decodeEnvelope[PlanetResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Terra", renamed.Data.Name)
	assert.Equal(t, created.ID, renamed.Data.ID)
	assert.Nil(t, renamed.Data.Population, "replace semantics drop an omitted population")

	// Old name is gone.
	resp = ts.api.Get("/api/v1/planets/Earth")
	require.Equal(t, http.StatusNotFound, resp.Code)

	// Delete.
	resp = ts.api.Delete("/api/v1/planets/Terra", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/planets/Terra")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreatePlanetValidation(t *testing.T) {
	ts := setupTestServer(t, "")
	token := ts.registerAndLogin(t, "curator")

	resp := ts.api.Post("/api/v1/planets", "Authorization: "+token, map[string]any{
		"population": -5,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[any](t, resp.Body.Bytes())
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION", envelope.Error.Code)
}

func TestListPlanetsFilters(t *testing.T) {
	ts := setupTestServer(t, "")
	token := ts.registerAndLogin(t, "curator")

	createTestPlanet(t, ts, token, "Tatooine", 200_000, []string{"desert"}, []string{"arid"})
	createTestPlanet(t, ts, token, "Kamino", 1_000_000_000, []string{"oceans"}, []string{"temperate"})
	createTestPlanet(t, ts, token, "Hoth", 0, []string{"tundra"}, []string{"frozen"})

	// Case-insensitive name substring.
	resp := ts.api.Get("/api/v1/planets?name_contains=IN")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeEnvelope[ListPlanetsResponse](t, resp.Body.Bytes())
	require.Equal(t, 2, list.Data.Total)
	assert.Equal(t, "Kamino", list.Data.Planets[0].Name)
	assert.Equal(t, "Tatooine", list.Data.Planets[1].Name)

	// Exact climate match.
	resp = ts.api.Get("/api/v1/planets?climate=frozen")
	require.Equal(t, http.StatusOK, resp.Code)
	list = decodeEnvelope[ListPlanetsResponse](t, resp.Body.Bytes())
	require.Equal(t, 1, list.Data.Total)
	assert.Equal(t, "Hoth", list.Data.Planets[0].Name)

	// Population bounds.
	resp = ts.api.Get("/api/v1/planets?population_gte=100000&population_lte=500000")
	require.Equal(t, http.StatusOK, resp.Code)
	list = decodeEnvelope[ListPlanetsResponse](t, resp.Body.Bytes())
	require.Equal(t, 1, list.Data.Total)
	assert.Equal(t, "Tatooine", list.Data.Planets[0].Name)

	// Ordering and pagination.
	resp = ts.api.Get("/api/v1/planets?order_by=name&desc=true&limit=2")
	require.Equal(t, http.StatusOK, resp.Code)
	list = decodeEnvelope[ListPlanetsResponse](t, resp.Body.Bytes())
	assert.Equal(t, 3, list.Data.Total)
	require.Len(t, list.Data.Planets, 2)
	assert.Equal(t, "Tatooine", list.Data.Planets[0].Name)
	assert.Equal(t, "Kamino", list.Data.Planets[1].Name)
	assert.Equal(t, 2, list.Data.Limit)

	// Bad bound value is a validation error.
	resp = ts.api.Get("/api/v1/planets?population_gte=many")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/api/v1/planets?created_at_gte=yesterday")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	// page/page_size paging maps onto limit/offset.
	resp = ts.api.Get("/api/v1/planets?order_by=name&page=2&page_size=2")
	require.Equal(t, http.StatusOK, resp.Code)
	list = decodeEnvelope[ListPlanetsResponse](t, resp.Body.Bytes())
	assert.Equal(t, 3, list.Data.Total)
	require.Len(t, list.Data.Planets, 1)
	assert.Equal(t, "Tatooine", list.Data.Planets[0].Name)
	assert.Equal(t, 2, list.Data.Offset)
}

func TestPatchPlanet(t *testing.T) {
	ts := setupTestServer(t, "")
	token := ts.registerAndLogin(t, "curator")

	created := createTestPlanet(t, ts, token, "Dagobah", 0, []string{"swamp"}, []string{"murky"})

	// Patching one field leaves the others alone.
	resp := ts.api.Patch("/api/v1/planets/Dagobah", "Authorization: "+token, map[string]any{
		"population": 1_000,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	patched := decodeEnvelope[PlanetResponse](t, resp.Body.Bytes())
	assert.Equal(t, created.ID, patched.Data.ID)
	require.NotNil(t, patched.Data.Population)
	assert.Equal(t, int64(1_000), *patched.Data.Population)
	assert.Equal(t, []string{"swamp"}, patched.Data.Terrains)
	assert.Equal(t, []string{"murky"}, patched.Data.Climates)

	// Rename through a patch invalidates the old name.
	resp = ts.api.Patch("/api/v1/planets/Dagobah", "Authorization: "+token, map[string]any{
		"name": "Dagobah-Prime",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/planets/Dagobah")
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/planets/Dagobah-Prime")
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeEnvelope[PlanetResponse](t, resp.Body.Bytes())
	require.NotNil(t, got.Data.Population)
	assert.Equal(t, int64(1_000), *got.Data.Population)

	// Unknown planet is a 404.
	resp = ts.api.Patch("/api/v1/planets/Nowhere", "Authorization: "+token, map[string]any{
		"population": 1,
	})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearchPlanets(t *testing.T) {
	ts := setupTestServer(t, "")
	token := ts.registerAndLogin(t, "curator")

	createTestPlanet(t, ts, token, "Tatooine", 200_000, []string{"desert"}, []string{"arid"})
	createTestPlanet(t, ts, token, "Kamino", 1_000_000_000, []string{"oceans"}, []string{"temperate"})

	resp := ts.api.Get("/api/v1/planets/search?q=desert")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[struct {
		Total uint64 `json:"total"`
		Hits  []struct {
			Name string `json:"name"`
		} `json:"hits"`
	}](t, resp.Body.Bytes())
	require.True(t, envelope.Success)
	require.EqualValues(t, 1, envelope.Data.Total)
	assert.Equal(t, "Tatooine", envelope.Data.Hits[0].Name)
}

func TestImportPlanets(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"data": {
				"allPlanets": {
					"planets": [
						{"name": "Tatooine", "population": 200000, "terrains": ["desert"], "climates": ["arid"]},
						{"name": "Hoth", "population": null, "terrains": ["tundra"], "climates": ["frozen"]}
					]
				}
			}
		}`)
	}))
	defer upstream.Close()

	ts := setupTestServer(t, upstream.URL)
	token := ts.registerAndLogin(t, "curator")

	resp := ts.api.Post("/api/v1/planets/import", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decodeEnvelope[ImportPlanetsResponse](t, resp.Body.Bytes())
	assert.Equal(t, 2, result.Data.Fetched)
	assert.Equal(t, 2, result.Data.Created)
	assert.Equal(t, 0, result.Data.Failed)

	// Imported planets are served from the catalog.
	resp = ts.api.Get("/api/v1/planets/Hoth")
	require.Equal(t, http.StatusOK, resp.Code)
	hoth := decodeEnvelope[PlanetResponse](t, resp.Body.Bytes())
	assert.Nil(t, hoth.Data.Population)

	// A second run updates instead of creating.
	resp = ts.api.Post("/api/v1/planets/import", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	result = decodeEnvelope[ImportPlanetsResponse](t, resp.Body.Bytes())
	assert.Equal(t, 0, result.Data.Created)
	assert.Equal(t, 2, result.Data.Updated)

	// Import feeds the search index through the reindex pass.
	resp = ts.api.Get("/api/v1/planets/search?q=tundra")
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestImportUpstreamDown(t *testing.T) {
	ts := setupTestServer(t, "http://127.0.0.1:1")
	token := ts.registerAndLogin(t, "curator")

	resp := ts.api.Post("/api/v1/planets/import", "Authorization: "+token)
	require.Equal(t, http.StatusBadGateway, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, "TRANSPORT", envelope.Error.Code)
}

func TestReindexPlanets(t *testing.T) {
	ts := setupTestServer(t, "")
	token := ts.registerAndLogin(t, "curator")

	createTestPlanet(t, ts, token, "Venus", 0, []string{"volcanic plains"}, []string{"scorching"})

	resp := ts.api.Post("/api/v1/planets/reindex", "Authorization: "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decodeEnvelope[ReindexPlanetsResponse](t, resp.Body.Bytes())
	assert.Equal(t, 1, result.Data.Indexed)
}

func TestListTerrainAndClimateNames(t *testing.T) {
	ts := setupTestServer(t, "")
	token := ts.registerAndLogin(t, "curator")

	createTestPlanet(t, ts, token, "Mars", 0, []string{"deserts", "polar caps"}, []string{"cold"})

	resp := ts.api.Get("/api/v1/terrains")
	require.Equal(t, http.StatusOK, resp.Code)
	terrains := decodeEnvelope[NamesResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"deserts", "polar caps"}, terrains.Data.Names)

	resp = ts.api.Get("/api/v1/climates")
	require.Equal(t, http.StatusOK, resp.Code)
	climates := decodeEnvelope[NamesResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"cold"}, climates.Data.Names)
}
