// Package geoip indexes the networks of a MaxMind database by country or category code.
package geoip

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/oschwald/maxminddb-golang"
)

type GeoIP struct {
	mu    sync.RWMutex
	cidrs map[string][]string
}

func NewGeoIP() *GeoIP {
	return &GeoIP{
		cidrs: make(map[string][]string),
	}
}

// Load parses the MMDB bytes and builds the in-memory index
func (g *GeoIP) Load(data []byte) error {
	db, err := maxminddb.FromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to open mmdb: %w", err)
	}
	defer db.Close()

	newCIDRs := make(map[string][]string)

	networks := db.Networks(maxminddb.SkipAliasedNetworks)
	count := 0
	for networks.Next() {
		var record any
		subnet, err := networks.Network(&record)
		if err != nil {
			continue
		}

		code := recordCode(record)
		if code == "" {
			continue
		}

		newCIDRs[code] = append(newCIDRs[code], subnet.String())
		count++
	}
	if err := networks.Err(); err != nil {
		return fmt.Errorf("failed to walk mmdb: %w", err)
	}
	slog.Info("geoip database loaded", "bytes", len(data), "type", db.Metadata.DatabaseType, "networks", count, "codes", len(newCIDRs))

	g.mu.Lock()
	g.cidrs = newCIDRs
	g.mu.Unlock()

	return nil
}

// recordCode extracts the upper-cased code from the record shapes found in
// country and category databases.
func recordCode(record any) string {
	var code string
	switch v := record.(type) {
	case string:
		code = v
	case map[string]any:
		if c, ok := v["country"].(map[string]any); ok {
			code, _ = c["iso_code"].(string)
		} else if iso, ok := v["iso_code"].(string); ok {
			code = iso
		} else if s, ok := v["code"].(string); ok {
			code = s
		}
	}
	return strings.ToUpper(code)
}

// GetCIDRs returns the list of CIDRs for the given country code or category
func (g *GeoIP) GetCIDRs(code string) ([]string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cidrs, ok := g.cidrs[strings.ToUpper(code)]
	return cidrs, ok
}

// Codes returns the number of indexed codes
func (g *GeoIP) Codes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cidrs)
}
