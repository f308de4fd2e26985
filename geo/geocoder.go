package geo

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// LookupFunc resolves a free-text place query to coordinates. Implementations
// typically wrap an external geocoding API.
type LookupFunc func(ctx context.Context, query string) (Point, error)

// Geocoder resolves place names with cache-through semantics: a hit skips
// the lookup entirely, a successful lookup is written back. Cache failures
// degrade to a plain lookup.
type Geocoder struct {
	lookup LookupFunc
	cache  Cache
	log    zerolog.Logger
}

func NewGeocoder(lookup LookupFunc, cache Cache, log zerolog.Logger) *Geocoder {
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	return &Geocoder{lookup: lookup, cache: cache, log: log}
}

// Resolve returns the coordinates for a query. Queries are normalized to
// lower case so "Lisbon" and "lisbon" share a cache entry.
func (g *Geocoder) Resolve(ctx context.Context, query string) (Point, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	if p, ok, err := g.cache.Get(ctx, key); err == nil && ok {
		return p, nil
	} else if err != nil {
		g.log.Warn().Err(err).Str("query", key).Msg("geocode cache read failed")
	}

	p, err := g.lookup(ctx, query)
	if err != nil {
		return Point{}, err
	}
	if err := g.cache.Put(ctx, key, p); err != nil {
		g.log.Warn().Err(err).Str("query", key).Msg("geocode cache write failed")
	}
	return p, nil
}
