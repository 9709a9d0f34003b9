// Package gazetteer maps feed locality names to broadcast zones.
//
// The mapping is two-step: a bundled dataset assigns every known locality
// to one of thirty feed region labels, and a fixed table folds those
// regions into the seven broadcast zones used on the mesh. Lookup is by
// exact locality name as published by the feed, Hebrew spelling included.
package gazetteer

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
)

//go:embed cities.json
var citiesJSON []byte

// Entry is one locality in the bundled dataset.
type Entry struct {
	Name   string `json:"name"`
	NameEN string `json:"name_en"`
	ZoneEN string `json:"zone_en"`
}

// regionZone folds the feed's region labels into broadcast zones.
var regionZone = map[string]int{
	// Zone 1, Northern.
	"Upper Galilee":      1,
	"Confrontation Line": 1,
	"North Golan":        1,
	"South Golan":        1,
	"Center Galilee":     1,

	// Zone 2, North Coast.
	"HaMifratz": 2,
	"HaCarmel":  2,
	"Menashe":   2,

	// Zone 3, Interior North.
	"Lower Galilee":      3,
	"Beit She'an Valley": 3,
	"HaAmakim":           3,
	"Wadi Ara":           3,

	// Zone 4, Central Coast.
	"Sharon": 4,
	"Yarkon": 4,
	"Dan":    4,

	// Zone 5, Central Interior.
	"Shomron":        5,
	"Jerusalem":      5,
	"Yehuda":         5,
	"Shfelat Yehuda": 5,
	"Bika'a":         5,

	// Zone 6, Southern Coast.
	"Gaza Envelope": 6,
	"West Lachish":  6,
	"Lachish":       6,
	"HaShfela":      6,

	// Zone 7, Desert.
	"West Negev":   7,
	"Center Negev": 7,
	"South Negev":  7,
	"Dead Sea":     7,
	"Arava":        7,
	"Eilat":        7,
}

// zoneLabels names the broadcast zones for reports and logs.
var zoneLabels = [domain.ZoneCount + 1]string{
	"",
	"Northern",
	"North Coast",
	"Interior North",
	"Central Coast",
	"Central Interior",
	"Southern Coast",
	"Desert",
}

// ZoneLabel returns a human-readable name for a broadcast zone, or ""
// for a zone outside [1, domain.ZoneCount].
func ZoneLabel(zone int) string {
	if zone < 1 || zone > domain.ZoneCount {
		return ""
	}
	return zoneLabels[zone]
}

// Gazetteer resolves locality names to broadcast zones.
type Gazetteer struct {
	entries []Entry
	byName  map[string]Entry
}

// Load parses the bundled dataset. The relay cannot operate without it,
// so callers treat an error here as fatal.
func Load() (*Gazetteer, error) {
	return Parse(citiesJSON)
}

// Parse builds a Gazetteer from raw dataset JSON.
func Parse(data []byte) (*Gazetteer, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("gazetteer has no entries")
	}
	g := &Gazetteer{
		entries: entries,
		byName:  make(map[string]Entry, len(entries)),
	}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("gazetteer entry %d has no name", i)
		}
		g.byName[e.Name] = e
	}
	return g, nil
}

// Len returns the number of localities in the dataset.
func (g *Gazetteer) Len() int {
	return len(g.entries)
}

// Entries returns the dataset in file order.
func (g *Gazetteer) Entries() []Entry {
	return g.entries
}

// Lookup finds a locality by its exact feed name.
func (g *Gazetteer) Lookup(name string) (Entry, bool) {
	e, ok := g.byName[name]
	return e, ok
}

// Zone resolves a locality name to its broadcast zone. It reports false
// for unknown localities and for localities whose region label has no
// zone assignment.
func (g *Gazetteer) Zone(name string) (int, bool) {
	e, ok := g.byName[name]
	if !ok {
		return 0, false
	}
	zone, ok := regionZone[e.ZoneEN]
	return zone, ok
}

// Resolve maps a list of locality names to the set of broadcast zones
// covering them. Names that resolve to no zone are returned separately
// so callers can surface them.
func (g *Gazetteer) Resolve(localities []string) (domain.ZoneSet, []string) {
	var zones domain.ZoneSet
	var unknown []string
	for _, name := range localities {
		zone, ok := g.Zone(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		zones.Add(zone)
	}
	return zones, unknown
}
