package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a planet search.
type SearchParams struct {
	Query string // User's search query

	// Population bounds (0 = no bound)
	MinPopulation int64
	MaxPopulation int64

	// Pagination
	Limit  int
	Offset int
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:  20,
		Offset: 0,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Terrains   string            `json:"terrains,omitempty"`
	Climates   string            `json:"climates,omitempty"`
	Population int64             `json:"population,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query against the planet index.
func (s *PlanetIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("name")
	searchRequest.Highlight.AddField("terrains")
	searchRequest.Highlight.AddField("climates")

	searchRequest.Fields = []string{"name", "terrains", "climates", "population"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if t, ok := hit.Fields["terrains"].(string); ok {
			searchHit.Terrains = t
		}
		if c, ok := hit.Fields["climates"].(string); ok {
			searchHit.Climates = c
		}
		if p, ok := hit.Fields["population"].(float64); ok {
			searchHit.Population = int64(p)
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		// Name match with highest boost
		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		// Terrain and climate matches
		terrainMatch := bleve.NewMatchQuery(params.Query)
		terrainMatch.SetField("terrains")
		terrainMatch.SetBoost(1.5)
		textQueries = append(textQueries, terrainMatch)

		climateMatch := bleve.NewMatchQuery(params.Query)
		climateMatch.SetField("climates")
		climateMatch.SetBoost(1.5)
		textQueries = append(textQueries, climateMatch)

		// Fuzzy matching for typo tolerance on name
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Population range filter
	if params.MinPopulation > 0 || params.MaxPopulation > 0 {
		min := float64(params.MinPopulation)
		max := math.MaxFloat64
		if params.MaxPopulation > 0 {
			max = float64(params.MaxPopulation)
		}
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&min, &max, &inclusive, &inclusive)
		rangeQuery.SetField("population")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
