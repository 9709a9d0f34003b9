// Command zonecheck validates the bundled gazetteer dataset and resolves
// locality names against it. With no arguments it runs the dataset checks
// and prints a per-zone coverage report; with arguments it resolves each
// name to its broadcast zone.
//
// Usage:
//
//	go run ./cmd/zonecheck
//	go run ./cmd/zonecheck שדרות אילת
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
	"github.com/couchcryptid/alert-mesh-relay/internal/gazetteer"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	flag.Parse()

	gaz, err := gazetteer.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load gazetteer: %v\n", err)
		os.Exit(1)
	}

	if args := flag.Args(); len(args) > 0 {
		os.Exit(resolve(gaz, args))
	}
	os.Exit(validate(gaz))
}

// resolve prints the broadcast zone for each locality name. Unresolved
// names make the command exit nonzero.
func resolve(gaz *gazetteer.Gazetteer, names []string) int {
	code := 0
	for _, name := range names {
		zone, ok := gaz.Zone(name)
		if !ok {
			fmt.Printf("%s: UNRESOLVED\n", name)
			code = 1
			continue
		}
		entry, _ := gaz.Lookup(name)
		fmt.Printf("%s: zone %d (%s), region %s\n", name, zone, gazetteer.ZoneLabel(zone), entry.ZoneEN)
	}
	return code
}

func validate(gaz *gazetteer.Gazetteer) int {
	fmt.Println("=== Gazetteer Validation ===")
	fmt.Println()
	fmt.Printf("Localities: %d\n", gaz.Len())

	phases := []*phase{
		validateEntries(gaz),
		validateCoverage(gaz),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateEntries checks every locality has a unique name and a region
// label that folds into a broadcast zone.
func validateEntries(gaz *gazetteer.Gazetteer) *phase {
	p := &phase{name: "Phase 1: Dataset Integrity"}

	seen := map[string]int{}
	for i, e := range gaz.Entries() {
		if prev, dup := seen[e.Name]; dup {
			p.errorf("entry %d: duplicate name %q (first at entry %d)", i, e.Name, prev)
		}
		seen[e.Name] = i

		if _, ok := gaz.Zone(e.Name); !ok {
			p.errorf("entry %d: %q has unmapped region %q", i, e.Name, e.ZoneEN)
		}
	}
	return p
}

// validateCoverage checks every broadcast zone has at least one locality
// and prints the per-zone breakdown.
func validateCoverage(gaz *gazetteer.Gazetteer) *phase {
	p := &phase{name: "Phase 2: Zone Coverage"}

	var counts [domain.ZoneCount + 1]int
	for _, e := range gaz.Entries() {
		if zone, ok := gaz.Zone(e.Name); ok {
			counts[zone]++
		}
	}

	fmt.Println("\nZone coverage:")
	for zone := 1; zone <= domain.ZoneCount; zone++ {
		fmt.Printf("  %d %-18s %d localities\n", zone, gazetteer.ZoneLabel(zone), counts[zone])
		if counts[zone] == 0 {
			p.errorf("zone %d (%s) has no localities", zone, gazetteer.ZoneLabel(zone))
		}
	}
	return p
}
