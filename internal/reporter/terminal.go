package reporter

import (
	"fmt"
	"strings"

	"github.com/pipshow-dev/pipshow/internal/models"
)

// TerminalReporter renders packages in the classic pip-show layout.
type TerminalReporter struct{}

// Report generates terminal output for the given report.
func (r *TerminalReporter) Report(report models.Report) ([]byte, error) {
	var sb strings.Builder

	for i, p := range report.Packages {
		if i > 0 {
			sb.WriteString("---\n")
		}

		fmt.Fprintf(&sb, "Name: %s\n", p.Name)
		fmt.Fprintf(&sb, "Version: %s\n", p.Version)
		fmt.Fprintf(&sb, "Location: %s\n", p.Location)
		if p.EditableLocation != "" {
			fmt.Fprintf(&sb, "Editable project location: %s\n", p.EditableLocation)
		}
		if p.LatestVersion != "" {
			fmt.Fprintf(&sb, "Latest: %s\n", p.LatestVersion)
		}

		// Requires/Required-by are shown only when the metadata could be
		// read; an empty value still gets its line.
		if p.RequiresKnown {
			fmt.Fprintf(&sb, "Requires:%s\n", joinField(p.Requires))
			fmt.Fprintf(&sb, "Required-by:%s\n", joinField(p.RequiredBy))
		}

		if p.Files != nil {
			sb.WriteString("Files:\n")
			for _, f := range p.Files {
				fmt.Fprintf(&sb, "  %s\n", f)
			}
		}
	}

	return []byte(sb.String()), nil
}

func joinField(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return " " + strings.Join(names, ", ")
}
