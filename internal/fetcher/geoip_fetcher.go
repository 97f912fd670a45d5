package fetcher

import (
	"context"
	"fmt"
)

const (
	DefaultGeoIPURL = "https://github.com/MetaCubeX/meta-rules-dat/releases/download/latest/geoip-lite.db"
)

// GeoIPFetcher retrieves a MaxMind database from a URL or a local path.
type GeoIPFetcher struct {
	fetcher  *Fetcher
	location string
}

func NewGeoIPFetcher(f *Fetcher, location string) *GeoIPFetcher {
	if location == "" {
		location = DefaultGeoIPURL
	}
	return &GeoIPFetcher{
		fetcher:  f,
		location: location,
	}
}

// GetDB returns the database bytes
func (g *GeoIPFetcher) GetDB(ctx context.Context) ([]byte, error) {
	body, err := g.fetcher.Fetch(ctx, g.location)
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, fmt.Errorf("geoip database %s is empty", g.location)
	}
	return []byte(body), nil
}
