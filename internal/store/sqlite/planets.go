package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/planetarium/planetarium-server/internal/domain"
	"github.com/planetarium/planetarium-server/internal/id"
	"github.com/planetarium/planetarium-server/internal/store"
)

// planetColumns is the ordered list of columns selected in planet queries.
// Must match the scan order in scanPlanet. Terrain and climate names are
// loaded separately.
const planetColumns = `p.id, p.name, p.population, p.created_at, p.updated_at`

// scanPlanet scans a sql.Row (or sql.Rows via its Scan method) into a domain.Planet.
func scanPlanet(scanner interface{ Scan(dest ...any) error }) (*domain.Planet, error) {
	var p domain.Planet

	var (
		createdAt  string
		updatedAt  string
		population sql.NullInt64
	)

	err := scanner.Scan(
		&p.ID,
		&p.Name,
		&population,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if population.Valid {
		v := population.Int64
		p.Population = &v
	}

	return &p, nil
}

// CreatePlanet inserts a new planet along with its terrain and climate
// associations in a single transaction.
// Returns store.ErrAlreadyExists if the planet ID or name already exists.
func (s *Store) CreatePlanet(ctx context.Context, p *domain.Planet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO planets (id, name, population, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		nullableInt64(p.Population),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := setPlanetAssociations(ctx, tx, p.ID, p.Terrains, p.Climates); err != nil {
		return err
	}

	return tx.Commit()
}

// GetPlanet retrieves a planet by ID, including terrain and climate names.
// Returns store.ErrNotFound if the planet does not exist.
func (s *Store) GetPlanet(ctx context.Context, planetID string) (*domain.Planet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planetColumns+` FROM planets p WHERE p.id = ?`, planetID)
	return s.finishPlanet(ctx, row)
}

// GetPlanetByName retrieves a planet by its unique name, including terrain
// and climate names.
// Returns store.ErrNotFound if the planet does not exist.
func (s *Store) GetPlanetByName(ctx context.Context, name string) (*domain.Planet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planetColumns+` FROM planets p WHERE p.name = ?`, name)
	return s.finishPlanet(ctx, row)
}

func (s *Store) finishPlanet(ctx context.Context, row *sql.Row) (*domain.Planet, error) {
	p, err := scanPlanet(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadPlanetAssociations(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PlanetNameExists reports whether a planet with the given name exists.
func (s *Store) PlanetNameExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM planets WHERE name = ?`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdatePlanet performs a full row update on an existing planet and
// replaces its terrain and climate associations, in a single transaction.
// Returns store.ErrNotFound if the planet does not exist and
// store.ErrAlreadyExists if the new name collides with another planet.
func (s *Store) UpdatePlanet(ctx context.Context, p *domain.Planet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE planets SET
			name = ?,
			population = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Name,
		nullableInt64(p.Population),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := setPlanetAssociations(ctx, tx, p.ID, p.Terrains, p.Climates); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePlanetByName deletes a planet row. Association rows cascade.
// Returns store.ErrNotFound if the planet does not exist.
func (s *Store) DeletePlanetByName(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM planets WHERE name = ?`, name)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListPlanets returns one page of planets matching the filter along with
// the total match count. Filter pagination and ordering are normalized
// before querying.
func (s *Store) ListPlanets(ctx context.Context, filter store.PlanetFilter) ([]*domain.Planet, int, error) {
	filter.Normalize()

	where, args := buildPlanetWhere(filter)

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM planets p`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	direction := "ASC"
	if filter.OrderDesc {
		direction = "DESC"
	}
	// OrderBy is restricted to known columns by Normalize.
	orderBy := fmt.Sprintf(" ORDER BY p.%s %s, p.id ASC", filter.OrderBy, direction)

	pageArgs := append(args, filter.Limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planetColumns+` FROM planets p`+where+orderBy+` LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var planets []*domain.Planet
	for rows.Next() {
		p, err := scanPlanet(rows)
		if err != nil {
			return nil, 0, err
		}
		planets = append(planets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, p := range planets {
		if err := s.loadPlanetAssociations(ctx, p); err != nil {
			return nil, 0, err
		}
	}

	return planets, total, nil
}

// buildPlanetWhere translates a normalized filter into a WHERE clause and
// its bind arguments. An empty filter yields an empty clause.
func buildPlanetWhere(filter store.PlanetFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, condArgs ...any) {
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}

	if filter.Name != "" {
		add("p.name = ?", filter.Name)
	}
	if filter.NameContains != "" {
		add("instr(lower(p.name), lower(?)) > 0", filter.NameContains)
	}
	if filter.Terrain != "" {
		add(`EXISTS (SELECT 1 FROM planet_terrains pt
			JOIN terrains t ON t.id = pt.terrain_id
			WHERE pt.planet_id = p.id AND t.name = ?)`, filter.Terrain)
	}
	if filter.TerrainContains != "" {
		add(`EXISTS (SELECT 1 FROM planet_terrains pt
			JOIN terrains t ON t.id = pt.terrain_id
			WHERE pt.planet_id = p.id AND instr(lower(t.name), lower(?)) > 0)`,
			filter.TerrainContains)
	}
	if filter.Climate != "" {
		add(`EXISTS (SELECT 1 FROM planet_climates pc
			JOIN climates c ON c.id = pc.climate_id
			WHERE pc.planet_id = p.id AND c.name = ?)`, filter.Climate)
	}
	if filter.ClimateContains != "" {
		add(`EXISTS (SELECT 1 FROM planet_climates pc
			JOIN climates c ON c.id = pc.climate_id
			WHERE pc.planet_id = p.id AND instr(lower(c.name), lower(?)) > 0)`,
			filter.ClimateContains)
	}

	// NULL populations never match a population bound.
	if filter.PopulationGTE != nil {
		add("p.population >= ?", *filter.PopulationGTE)
	}
	if filter.PopulationLTE != nil {
		add("p.population <= ?", *filter.PopulationLTE)
	}

	// Timestamps are RFC3339Nano strings; datetime() normalizes them so
	// values with and without fractional seconds compare correctly.
	if filter.CreatedAtGTE != nil {
		add("datetime(p.created_at) >= datetime(?)", formatTime(*filter.CreatedAtGTE))
	}
	if filter.CreatedAtLTE != nil {
		add("datetime(p.created_at) <= datetime(?)", formatTime(*filter.CreatedAtLTE))
	}
	if filter.UpdatedAtGTE != nil {
		add("datetime(p.updated_at) >= datetime(?)", formatTime(*filter.UpdatedAtGTE))
	}
	if filter.UpdatedAtLTE != nil {
		add("datetime(p.updated_at) <= datetime(?)", formatTime(*filter.UpdatedAtLTE))
	}

	if len(conds) == 0 {
		return "", nil
	}

	where := " WHERE " + conds[0]
	for _, cond := range conds[1:] {
		where += " AND " + cond
	}
	return where, args
}

// UpsertImportedPlanet applies one upstream record in a single transaction.
// A new planet is created with the record's population; an existing planet
// keeps its stored population. Terrain and climate associations are
// replaced with the record's sets either way.
// Returns whether a new planet row was created.
func (s *Store) UpsertImportedPlanet(ctx context.Context, rec store.ImportedPlanet) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var planetID string
	var created bool
	now := formatTime(time.Now())

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM planets WHERE name = ?`, rec.Name).Scan(&planetID)
	switch {
	case err == sql.ErrNoRows:
		planetID, err = id.Generate("planet")
		if err != nil {
			return false, fmt.Errorf("generate planet ID: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO planets (id, name, population, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			planetID, rec.Name, nullableInt64(rec.Population), now, now)
		if err != nil {
			return false, err
		}
		created = true
	case err != nil:
		return false, err
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE planets SET updated_at = ? WHERE id = ?`, now, planetID)
		if err != nil {
			return false, err
		}
	}

	if err := setPlanetAssociations(ctx, tx, planetID, rec.Terrains, rec.Climates); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return created, nil
}

// setPlanetAssociations replaces a planet's terrain and climate links
// inside an open transaction, creating terrain and climate rows as needed.
func setPlanetAssociations(ctx context.Context, tx *sql.Tx, planetID string, terrains, climates []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM planet_terrains WHERE planet_id = ?`, planetID); err != nil {
		return fmt.Errorf("delete planet_terrains: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM planet_climates WHERE planet_id = ?`, planetID); err != nil {
		return fmt.Errorf("delete planet_climates: %w", err)
	}

	for _, name := range terrains {
		terrainID, err := getOrCreateNamed(ctx, tx, "terrains", "terrain", name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO planet_terrains (planet_id, terrain_id)
			VALUES (?, ?)`, planetID, terrainID)
		if err != nil {
			return fmt.Errorf("insert planet_terrains: %w", err)
		}
	}

	for _, name := range climates {
		climateID, err := getOrCreateNamed(ctx, tx, "climates", "climate", name)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO planet_climates (planet_id, climate_id)
			VALUES (?, ?)`, planetID, climateID)
		if err != nil {
			return fmt.Errorf("insert planet_climates: %w", err)
		}
	}

	return nil
}

// getOrCreateNamed resolves a row ID in a name-unique lookup table
// (terrains or climates), creating the row if missing.
func getOrCreateNamed(ctx context.Context, tx *sql.Tx, table, prefix, name string) (string, error) {
	var rowID string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&rowID)
	if err == nil {
		return rowID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	rowID, err = id.Generate(prefix)
	if err != nil {
		return "", fmt.Errorf("generate %s ID: %w", prefix, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+table+` (id, name) VALUES (?, ?)`, rowID, name)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", table, err)
	}
	return rowID, nil
}

// loadPlanetAssociations fills in the planet's terrain and climate names,
// each sorted alphabetically.
func (s *Store) loadPlanetAssociations(ctx context.Context, p *domain.Planet) error {
	terrains, err := s.queryNames(ctx, `
		SELECT t.name FROM terrains t
		JOIN planet_terrains pt ON pt.terrain_id = t.id
		WHERE pt.planet_id = ?
		ORDER BY t.name ASC`, p.ID)
	if err != nil {
		return err
	}
	climates, err := s.queryNames(ctx, `
		SELECT c.name FROM climates c
		JOIN planet_climates pc ON pc.climate_id = c.id
		WHERE pc.planet_id = ?
		ORDER BY c.name ASC`, p.ID)
	if err != nil {
		return err
	}

	p.Terrains = terrains
	p.Climates = climates
	return nil
}

func (s *Store) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// ListTerrainNames returns all known terrain names sorted alphabetically.
func (s *Store) ListTerrainNames(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx, `SELECT name FROM terrains ORDER BY name ASC`)
}

// ListClimateNames returns all known climate names sorted alphabetically.
func (s *Store) ListClimateNames(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx, `SELECT name FROM climates ORDER BY name ASC`)
}
