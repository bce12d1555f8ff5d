// Package importer pulls the planet catalog from the upstream GraphQL
// API and applies it record by record.
package importer

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperr "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/store"
)

// allPlanetsQuery asks the upstream for every planet with the fields the
// catalog tracks.
const allPlanetsQuery = `query { allPlanets { planets { name population terrains climates } } }`

// Client fetches planets from the upstream GraphQL endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	url         string
	logger      *slog.Logger
}

// NewClient creates an upstream client.
// Rate limited to one request per second with a small burst; full-catalog
// pulls are rare and the upstream is a shared public service.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
		url:         url,
		logger:      logger,
	}
}

type graphqlRequest struct {
	Query string `json:"query"`
}

type planetRecord struct {
	Name       string   `json:"name"`
	Population *float64 `json:"population"`
	Terrains   []string `json:"terrains"`
	Climates   []string `json:"climates"`
}

type graphqlResponse struct {
	Data struct {
		AllPlanets struct {
			Planets []planetRecord `json:"planets"`
		} `json:"allPlanets"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchPlanets retrieves the full upstream planet list.
// Failures to reach or read the upstream surface as transport errors.
func (c *Client) FetchPlanets(ctx context.Context) ([]store.ImportedPlanet, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(graphqlRequest{Query: allPlanetsQuery})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transportf("upstream request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Transportf("upstream returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Transportf("read upstream response: %v", err)
	}

	var decoded graphqlResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, apperr.Transportf("decode upstream response: %v", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, apperr.Transportf("upstream query error: %s", decoded.Errors[0].Message)
	}

	records := decoded.Data.AllPlanets.Planets
	planets := make([]store.ImportedPlanet, 0, len(records))
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		planet := store.ImportedPlanet{
			Name:     rec.Name,
			Terrains: rec.Terrains,
			Climates: rec.Climates,
		}
		if rec.Population != nil {
			// JSON numbers arrive as float64; round rather than truncate.
			v := int64(math.Round(*rec.Population))
			planet.Population = &v
		}
		planets = append(planets, planet)
	}

	c.logger.Debug("fetched upstream planets", "count", len(planets))
	return planets, nil
}
