package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// testMarker flags self-test broadcasts injected into the public feed.
	// Localities carrying it are never relayed.
	testMarker = "בדיקה"

	// historyWindow is how far back a history entry may date and still
	// count as live. Older entries are leftovers from alerts that have
	// already ended.
	historyWindow = 120 * time.Second
)

// liveCategories maps the live endpoint's numeric category codes. Codes
// 101 and up are the drill variants of the base categories.
var liveCategories = map[int]string{
	1:   "missiles",
	2:   "general",
	3:   "earthQuake",
	4:   "radiologicalEvent",
	5:   "tsunami",
	6:   "hostileAircraftIntrusion",
	7:   "hazardousMaterials",
	13:  "terroristInfiltration",
	101: "missilesDrill",
	102: "generalDrill",
	103: "earthQuakeDrill",
	104: "radiologicalEventDrill",
	105: "tsunamiDrill",
	106: "hostileAircraftIntrusionDrill",
	107: "hazardousMaterialsDrill",
	113: "terroristInfiltrationDrill",
}

// historyCategories maps the history endpoint's codes, which follow a
// different numbering than the live endpoint.
var historyCategories = map[int]string{
	1:  "missiles",
	2:  "hostileAircraftIntrusion",
	3:  "general",
	4:  "general",
	7:  "earthQuake",
	9:  "radiologicalEvent",
	10: "terroristInfiltration",
	11: "tsunami",
	12: "hazardousMaterials",
}

// NormalizeAlert reduces a decoded payload to its canonical alert. It
// never fails: unmappable categories become TypeUnknown and unusable
// history entries are dropped.
func NormalizeAlert(p Payload) Alert {
	switch {
	case p.Live != nil:
		return normalizeLive(*p.Live)
	case p.History != nil:
		return normalizeHistory(p.History)
	default:
		return Alert{Type: TypeNone}
	}
}

func normalizeLive(live LiveAlert) Alert {
	alert := Alert{Type: TypeNone, Instructions: live.Desc}
	if live.Cat != "" {
		alert.Type = categoryLabel(liveCategories, live.Cat)
	}
	// A document with no category is idle; its locality list is noise.
	if alert.Type == TypeNone {
		return alert
	}
	for _, name := range live.Data {
		if name = cleanLocality(name); name != "" {
			alert.Localities = appendUnique(alert.Localities, name)
		}
	}
	return alert
}

func normalizeHistory(entries []HistoryEntry) Alert {
	alert := Alert{Type: TypeNone}
	now := clock.Now()
	for _, e := range entries {
		if e.AlertDate == "" || e.Data == "" || e.Category == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339, e.AlertDate)
		if err != nil {
			continue
		}
		if now.Sub(at) > historyWindow {
			continue
		}
		name := cleanLocality(e.Data)
		if name == "" {
			continue
		}
		alert.Localities = appendUnique(alert.Localities, name)
		alert.Type = categoryLabel(historyCategories, e.Category)
	}
	return alert
}

// cleanLocality trims a locality name and blanks it when it is a
// self-test entry.
func cleanLocality(name string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, testMarker) {
		return ""
	}
	return name
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

func categoryLabel(table map[int]string, category string) string {
	code, err := strconv.Atoi(strings.TrimSpace(category))
	if err != nil {
		return TypeUnknown
	}
	if label, ok := table[code]; ok {
		return label
	}
	return TypeUnknown
}
