package reporter

import "github.com/pipshow-dev/pipshow/internal/models"

// Reporter is the interface for output formatters.
type Reporter interface {
	// Report renders the given show report.
	Report(report models.Report) ([]byte, error)
}

// Get returns a reporter for the specified format.
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "yaml":
		return &YAMLReporter{}
	default:
		return &TerminalReporter{}
	}
}

// output is the structured form shared by the JSON and YAML reporters.
type output struct {
	Summary     summary     `json:"summary" yaml:"summary"`
	Packages    []pkgOutput `json:"packages" yaml:"packages"`
	NotFound    []string    `json:"not_found,omitempty" yaml:"not_found,omitempty"`
	Diagnostics []string    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type summary struct {
	Shown    int `json:"shown" yaml:"shown"`
	NotFound int `json:"not_found" yaml:"not_found"`
}

type pkgOutput struct {
	Name             string   `json:"name" yaml:"name"`
	Version          string   `json:"version" yaml:"version"`
	Location         string   `json:"location" yaml:"location"`
	EditableLocation string   `json:"editable_location,omitempty" yaml:"editable_location,omitempty"`
	LatestVersion    string   `json:"latest_version,omitempty" yaml:"latest_version,omitempty"`
	// Requires and RequiredBy are pointers so "unknown" (metadata
	// unreadable) serializes as null rather than an empty list.
	Requires   *[]string `json:"requires" yaml:"requires"`
	RequiredBy *[]string `json:"required_by" yaml:"required_by"`
	Files      []string  `json:"files,omitempty" yaml:"files,omitempty"`
}

func buildOutput(report models.Report) output {
	out := output{
		Summary: summary{
			Shown:    len(report.Packages),
			NotFound: len(report.NotFound),
		},
		Packages:    make([]pkgOutput, 0, len(report.Packages)),
		NotFound:    report.NotFound,
		Diagnostics: report.Diagnostics,
	}

	for _, p := range report.Packages {
		po := pkgOutput{
			Name:             p.Name,
			Version:          p.Version,
			Location:         p.Location,
			EditableLocation: p.EditableLocation,
			LatestVersion:    p.LatestVersion,
			Files:            p.Files,
		}
		if p.RequiresKnown {
			requires := emptyIfNil(p.Requires)
			requiredBy := emptyIfNil(p.RequiredBy)
			po.Requires = &requires
			po.RequiredBy = &requiredBy
		}
		out.Packages = append(out.Packages, po)
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
