package reporter

import (
	"encoding/json"

	"github.com/pipshow-dev/pipshow/internal/models"
)

// JSONReporter renders the report as indented JSON.
type JSONReporter struct{}

// Report generates JSON output for the given report.
func (r *JSONReporter) Report(report models.Report) ([]byte, error) {
	data, err := json.MarshalIndent(buildOutput(report), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
