package reporter

import (
	"gopkg.in/yaml.v3"

	"github.com/pipshow-dev/pipshow/internal/models"
)

// YAMLReporter renders the report as YAML.
type YAMLReporter struct{}

// Report generates YAML output for the given report.
func (r *YAMLReporter) Report(report models.Report) ([]byte, error) {
	return yaml.Marshal(buildOutput(report))
}
