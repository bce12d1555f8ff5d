package cache

// Key prefixes group entries by concern.
const planetKeyPrefix = "planet_data_"

// PlanetKey builds the cache key for a planet snapshot. Keys are derived
// from the planet name, so a rename moves the snapshot to a new key.
func PlanetKey(name string) string {
	return planetKeyPrefix + name
}
