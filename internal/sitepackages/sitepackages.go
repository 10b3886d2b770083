// Package sitepackages enumerates the installed distributions of a Python
// environment and reads their dist-info metadata.
package sitepackages

import (
	"bufio"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pipshow-dev/pipshow/internal/pep508"
)

// Metadata is the parsed core metadata of one installed distribution.
type Metadata struct {
	Name          string
	Version       string
	RequiresDist  []pep508.Requirement
	ProvidesExtra []string
}

// Distribution is an immutable snapshot of one installed distribution,
// identified by its .dist-info directory. Metadata is parsed lazily and at
// most once; a parse failure is remembered and returned on every call.
type Distribution struct {
	name    string
	rawName string
	version string
	path    string

	metaDone bool
	meta     *Metadata
	metaErr  error
}

// Name returns the normalized package name.
func (d *Distribution) Name() string { return d.name }

// RawName returns the name as written in the dist-info directory.
func (d *Distribution) RawName() string { return d.rawName }

// Version returns the installed version.
func (d *Distribution) Version() string { return d.version }

// Path returns the .dist-info directory.
func (d *Distribution) Path() string { return d.path }

// Location returns the site-packages directory containing the distribution.
func (d *Distribution) Location() string { return filepath.Dir(d.path) }

// Metadata parses and returns the distribution's METADATA file. The result
// is memoized, including failures.
func (d *Distribution) Metadata() (*Metadata, error) {
	if !d.metaDone {
		d.meta, d.metaErr = readMetadata(filepath.Join(d.path, "METADATA"))
		d.metaDone = true
	}
	return d.meta, d.metaErr
}

// Requirements returns the declared dependencies, parsing metadata on first
// use. It satisfies the depindex metadata-reader contract.
func (d *Distribution) Requirements() ([]pep508.Requirement, error) {
	meta, err := d.Metadata()
	if err != nil {
		return nil, err
	}
	return meta.RequiresDist, nil
}

func readMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// METADATA is RFC 822 headers followed by an optional description body.
	hdr, err := textproto.NewReader(bufio.NewReader(f)).ReadMIMEHeader()
	if err != nil && len(hdr) == 0 {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	meta := &Metadata{
		Name:    hdr.Get("Name"),
		Version: hdr.Get("Version"),
	}
	for _, line := range hdr.Values("Requires-Dist") {
		req, err := pep508.ParseRequirement(line)
		if err != nil {
			// One malformed declaration does not invalidate the rest.
			continue
		}
		meta.RequiresDist = append(meta.RequiresDist, req)
	}
	for _, extra := range hdr.Values("Provides-Extra") {
		meta.ProvidesExtra = append(meta.ProvidesExtra, pep508.NormalizeName(extra))
	}
	return meta, nil
}

// Catalog is a snapshot of every installed distribution found across a set
// of site-packages directories.
type Catalog struct {
	dists  []*Distribution
	byName map[string][]*Distribution
}

// Scan enumerates the dist-info directories under each site-packages path.
// A missing directory is skipped; any other enumeration failure is fatal,
// since no catalog can be built without it.
func Scan(dirs []string) (*Catalog, error) {
	c := &Catalog{byName: make(map[string][]*Distribution)}
	seen := make(map[string]bool)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("enumerating %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dist-info") {
				continue
			}
			stem := strings.TrimSuffix(entry.Name(), ".dist-info")
			rawName, version, ok := strings.Cut(stem, "-")
			if !ok {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if seen[path] {
				continue
			}
			seen[path] = true
			dist := &Distribution{
				name:    pep508.NormalizeName(rawName),
				rawName: rawName,
				version: version,
				path:    path,
			}
			c.dists = append(c.dists, dist)
			c.byName[dist.name] = append(c.byName[dist.name], dist)
		}
	}

	sort.Slice(c.dists, func(i, j int) bool {
		if c.dists[i].name != c.dists[j].name {
			return c.dists[i].name < c.dists[j].name
		}
		return c.dists[i].path < c.dists[j].path
	})
	return c, nil
}

// All returns every installed distribution, ordered by name.
func (c *Catalog) All() []*Distribution { return c.dists }

// Len returns the number of installed distributions.
func (c *Catalog) Len() int { return len(c.dists) }

// Find returns every installed copy of the given package name.
func (c *Catalog) Find(name string) []*Distribution {
	return c.byName[pep508.NormalizeName(name)]
}
