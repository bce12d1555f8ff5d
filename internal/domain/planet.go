package domain

import "time"

// Planet is a catalog entry keyed by its unique name.
// Terrains and Climates hold the associated names (not IDs); the store
// resolves them to terrain/climate rows on write.
type Planet struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Population *int64    `json:"population"`
	Terrains   []string  `json:"terrains"`
	Climates   []string  `json:"climates"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the planet changes.
func (p *Planet) Touch() {
	p.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new planet.
func (p *Planet) InitTimestamps() {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// Terrain is a named terrain type, unique by name, many-to-many with planets.
type Terrain struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Climate is a named climate type, unique by name, many-to-many with planets.
type Climate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
