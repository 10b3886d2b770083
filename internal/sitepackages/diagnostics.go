package sitepackages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pipshow-dev/pipshow/internal/pep508"
)

// Diagnostic is one environment-consistency finding.
type Diagnostic struct {
	// Package is the normalized name of the distribution the finding is
	// about.
	Package string
	// Message is the human-readable description.
	Message string
}

// Diagnostics checks the catalog for inconsistencies: distributions whose
// active requirements are not installed, and names installed more than once.
// Distributions with unreadable metadata are skipped, not reported.
func Diagnostics(c *Catalog, env pep508.Environment) []Diagnostic {
	var out []Diagnostic

	for name, copies := range c.byName {
		if len(copies) > 1 {
			locations := make([]string, len(copies))
			for i, d := range copies {
				locations[i] = d.Location()
			}
			sort.Strings(locations)
			out = append(out, Diagnostic{
				Package: name,
				Message: fmt.Sprintf("The package `%s` is installed %d times: %s", name, len(copies), strings.Join(locations, ", ")),
			})
		}
	}

	for _, d := range c.All() {
		meta, err := d.Metadata()
		if err != nil {
			continue
		}
		for _, req := range meta.RequiresDist {
			if req.Marker != nil && !req.Marker.Evaluate(env, nil) {
				continue
			}
			if len(c.Find(req.Name)) == 0 {
				out = append(out, Diagnostic{
					Package: d.name,
					Message: fmt.Sprintf("The package `%s` requires `%s`, but it's not installed", d.name, req.Name),
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Message < out[j].Message
	})
	return out
}
