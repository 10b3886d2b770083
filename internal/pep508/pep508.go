// Package pep508 parses PEP 508 dependency specifications and evaluates
// their environment markers.
package pep508

import (
	"fmt"
	"regexp"
	"strings"
)

// normalizeRe collapses the separator runs PEP 503 treats as equivalent.
var normalizeRe = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the PEP 503 normalized form of a package name.
// All name comparisons in pipshow go through this.
func NormalizeName(name string) string {
	return strings.ToLower(normalizeRe.ReplaceAllString(strings.TrimSpace(name), "-"))
}

// namePattern matches a PEP 508 package name at the start of a requirement.
var namePattern = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)

// Requirement is a single parsed dependency declaration, e.g. one
// Requires-Dist value from a METADATA file.
type Requirement struct {
	// Name is the normalized referenced package name.
	Name string
	// RawName is the name as written in the requirement.
	RawName string
	// Extras activated on the dependency, e.g. requests[socks].
	Extras []string
	// Specifier is the verbatim version constraint text. pipshow displays
	// it but never evaluates it.
	Specifier string
	// URL is set for direct references (name @ url).
	URL string
	// Marker is the parsed environment marker, or nil when the requirement
	// is unconditional.
	Marker *Marker
	// Raw is the original requirement line.
	Raw string
}

// ParseRequirement parses a PEP 508 dependency line such as
//
//	requests[socks] (>=2.28,<3) ; python_version >= "3.8"
func ParseRequirement(line string) (Requirement, error) {
	raw := line
	line = strings.TrimSpace(line)
	if line == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}

	m := namePattern.FindString(line)
	if m == "" {
		return Requirement{}, fmt.Errorf("requirement %q: no package name", raw)
	}
	req := Requirement{
		Name:    NormalizeName(m),
		RawName: m,
		Raw:     raw,
	}
	rest := strings.TrimSpace(line[len(m):])

	// Extras: [a, b]
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return Requirement{}, fmt.Errorf("requirement %q: unterminated extras", raw)
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, NormalizeName(extra))
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	// Split off the marker at the first semicolon outside quotes.
	spec := rest
	if i := indexOutsideQuotes(rest, ';'); i >= 0 {
		spec = strings.TrimSpace(rest[:i])
		markerText := strings.TrimSpace(rest[i+1:])
		if markerText == "" {
			return Requirement{}, fmt.Errorf("requirement %q: empty marker", raw)
		}
		marker, err := ParseMarker(markerText)
		if err != nil {
			return Requirement{}, fmt.Errorf("requirement %q: %w", raw, err)
		}
		req.Marker = marker
	}

	switch {
	case strings.HasPrefix(spec, "@"):
		req.URL = strings.TrimSpace(spec[1:])
	case strings.HasPrefix(spec, "(") && strings.HasSuffix(spec, ")"):
		req.Specifier = strings.TrimSpace(spec[1 : len(spec)-1])
	default:
		req.Specifier = spec
	}

	return req, nil
}

// indexOutsideQuotes returns the index of the first occurrence of c that is
// not inside a single- or double-quoted string, or -1.
func indexOutsideQuotes(s string, c byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		switch {
		case quote != 0:
			if s[i] == quote {
				quote = 0
			}
		case s[i] == '\'' || s[i] == '"':
			quote = s[i]
		case s[i] == c:
			return i
		}
	}
	return -1
}

// Environment holds the PEP 508 marker variables of one resolved Python
// environment. It is immutable for the duration of an index build and is
// always passed explicitly.
type Environment struct {
	ImplementationName           string `json:"implementation_name"`
	ImplementationVersion        string `json:"implementation_version"`
	OSName                       string `json:"os_name"`
	PlatformMachine              string `json:"platform_machine"`
	PlatformPythonImplementation string `json:"platform_python_implementation"`
	PlatformRelease              string `json:"platform_release"`
	PlatformSystem               string `json:"platform_system"`
	PlatformVersion              string `json:"platform_version"`
	PythonFullVersion            string `json:"python_full_version"`
	PythonVersion                string `json:"python_version"`
	SysPlatform                  string `json:"sys_platform"`
}

// lookup resolves a marker variable name. Unknown variables resolve to the
// empty string, matching pip's lenient behavior.
func (e Environment) lookup(name string) string {
	switch name {
	case "implementation_name":
		return e.ImplementationName
	case "implementation_version":
		return e.ImplementationVersion
	case "os_name":
		return e.OSName
	case "platform_machine":
		return e.PlatformMachine
	case "platform_python_implementation":
		return e.PlatformPythonImplementation
	case "platform_release":
		return e.PlatformRelease
	case "platform_system":
		return e.PlatformSystem
	case "platform_version":
		return e.PlatformVersion
	case "python_full_version":
		return e.PythonFullVersion
	case "python_version":
		return e.PythonVersion
	case "sys_platform":
		return e.SysPlatform
	}
	return ""
}
