// Package depindex builds a bidirectional direct-dependency index over the
// installed-package catalog, parsing each distribution's metadata at most
// once and only when needed.
package depindex

import (
	"sort"

	"github.com/pipshow-dev/pipshow/internal/pep508"
)

// Distribution is the slice of an installed distribution the index needs:
// its identity and a metadata reader. Requirements reports declared
// dependencies, or an error when the metadata is unreadable.
type Distribution interface {
	Name() string
	Requirements() ([]pep508.Requirement, error)
}

// ActiveDependencyNames filters requirements by their environment markers
// and projects them to a sorted, deduplicated list of normalized package
// names. A requirement without a marker is always active. Markers are
// evaluated without extras.
func ActiveDependencyNames(reqs []pep508.Requirement, env pep508.Environment) []string {
	seen := make(map[string]bool, len(reqs))
	names := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if req.Marker != nil && !req.Marker.Evaluate(env, nil) {
			continue
		}
		if !seen[req.Name] {
			seen[req.Name] = true
			names = append(names, req.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Index answers Requires and RequiredBy queries for a set of target
// distributions. It is built once per invocation from a catalog snapshot
// and holds no state beyond the collected dependency maps.
type Index struct {
	// forward holds the active dependency names of every target whose
	// metadata parsed. Presence of a key is meaningful: an empty slice
	// means "zero dependencies", a missing key means "unknown".
	forward map[string][]string
	// requirers holds the non-empty dependency sets collected during the
	// catalog scan, for distributions outside the forward map.
	requirers map[string][]string
	// inspected records every name whose metadata was attempted during the
	// forward pass, successful or not, so the reverse pass never parses a
	// distribution twice.
	inspected map[string]bool
}

// Build constructs the index for the given targets. The forward pass parses
// only the targets' metadata; a parse failure leaves the target without a
// forward entry and never aborts the build. The reverse pass then scans the
// full catalog exactly once, skipping names already inspected, keeping only
// distributions that declare at least one active dependency. The reverse
// pass is skipped entirely when no target has resolvable requirements.
func Build(targets []Distribution, catalog []Distribution, env pep508.Environment) *Index {
	ix := &Index{
		forward:   make(map[string][]string, len(targets)),
		requirers: make(map[string][]string),
		inspected: make(map[string]bool, len(targets)),
	}

	for _, dist := range targets {
		ix.inspected[dist.Name()] = true
		reqs, err := dist.Requirements()
		if err != nil {
			continue
		}
		ix.forward[dist.Name()] = ActiveDependencyNames(reqs, env)
	}

	if len(ix.forward) == 0 {
		return ix
	}

	for _, dist := range catalog {
		if ix.inspected[dist.Name()] {
			continue
		}
		ix.inspected[dist.Name()] = true
		reqs, err := dist.Requirements()
		if err != nil {
			continue
		}
		if names := ActiveDependencyNames(reqs, env); len(names) > 0 {
			ix.requirers[dist.Name()] = names
		}
	}
	return ix
}

// Requires returns the active direct dependencies of the named target. The
// second result distinguishes "zero dependencies" (empty slice, true) from
// "never successfully inspected" (nil, false).
func (ix *Index) Requires(name string) ([]string, bool) {
	deps, ok := ix.forward[pep508.NormalizeName(name)]
	return deps, ok
}

// RequiredBy returns the sorted names of every inspected distribution that
// declares an active dependency on the given name. The result never
// contains the name itself.
func (ix *Index) RequiredBy(name string) []string {
	target := pep508.NormalizeName(name)
	var out []string
	collect := func(m map[string][]string) {
		for requirer, deps := range m {
			if requirer == target {
				continue
			}
			for _, dep := range deps {
				if dep == target {
					out = append(out, requirer)
					break
				}
			}
		}
	}
	collect(ix.forward)
	collect(ix.requirers)
	sort.Strings(out)
	return out
}
