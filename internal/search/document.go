package search

import (
	"strings"

	"github.com/planetarium/planetarium-server/internal/domain"
)

// PlanetDocument is the indexable projection of a planet.
type PlanetDocument struct {
	ID         string
	Name       string
	Terrains   []string
	Climates   []string
	Population int64 // 0 when unknown
}

// NewPlanetDocument projects a domain planet into its search document.
func NewPlanetDocument(p *domain.Planet) *PlanetDocument {
	doc := &PlanetDocument{
		ID:       p.ID,
		Name:     p.Name,
		Terrains: p.Terrains,
		Climates: p.Climates,
	}
	if p.Population != nil {
		doc.Population = *p.Population
	}
	return doc
}

// ToMap converts the document to a map so field names match the index
// mapping (lowercase).
func (d *PlanetDocument) ToMap() map[string]any {
	return map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"terrains":   strings.Join(d.Terrains, " "),
		"climates":   strings.Join(d.Climates, " "),
		"population": d.Population,
	}
}
