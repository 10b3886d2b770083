package models

// Report is the presentation-layer snapshot handed to a reporter.
type Report struct {
	// Packages are the shown distributions, in query order.
	Packages []Package
	// NotFound lists requested names with no installed distribution.
	NotFound []string
	// Diagnostics are strict-mode environment-consistency findings.
	Diagnostics []string
}

// Package describes one installed distribution for display.
type Package struct {
	Name     string
	Version  string
	Location string
	// EditableLocation is the source directory of an editable install.
	EditableLocation string
	// RequiresKnown separates "metadata was unreadable" (false) from
	// "zero dependencies" (true with empty Requires).
	RequiresKnown bool
	Requires      []string
	RequiredBy    []string
	// Files is the RECORD-derived file list, populated on request.
	Files []string
	// LatestVersion is the newest PyPI release, populated on request.
	LatestVersion string
}
