package reporter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pipshow-dev/pipshow/internal/models"
)

func sampleReport() models.Report {
	return models.Report{
		Packages: []models.Package{
			{
				Name:          "requests",
				Version:       "2.32.3",
				Location:      "/venv/lib/python3.11/site-packages",
				RequiresKnown: true,
				Requires:      []string{"certifi", "charset-normalizer", "idna", "urllib3"},
				RequiredBy:    []string{"httpbin"},
			},
			{
				Name:          "certifi",
				Version:       "2024.2.2",
				Location:      "/venv/lib/python3.11/site-packages",
				RequiresKnown: true,
				Requires:      []string{},
				RequiredBy:    []string{"requests"},
			},
		},
	}
}

func TestGet(t *testing.T) {
	assert.IsType(t, &TerminalReporter{}, Get("terminal"))
	assert.IsType(t, &TerminalReporter{}, Get(""))
	assert.IsType(t, &JSONReporter{}, Get("json"))
	assert.IsType(t, &YAMLReporter{}, Get("yaml"))
}

func TestTerminalReport(t *testing.T) {
	out, err := (&TerminalReporter{}).Report(sampleReport())
	require.NoError(t, err)

	want := "Name: requests\n" +
		"Version: 2.32.3\n" +
		"Location: /venv/lib/python3.11/site-packages\n" +
		"Requires: certifi, charset-normalizer, idna, urllib3\n" +
		"Required-by: httpbin\n" +
		"---\n" +
		"Name: certifi\n" +
		"Version: 2024.2.2\n" +
		"Location: /venv/lib/python3.11/site-packages\n" +
		"Requires:\n" +
		"Required-by: requests\n"
	assert.Equal(t, want, string(out))
}

func TestTerminalReportUnknownRequires(t *testing.T) {
	report := models.Report{
		Packages: []models.Package{
			{Name: "broken", Version: "1.0", Location: "/site-packages"},
		},
	}

	out, err := (&TerminalReporter{}).Report(report)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "Requires", "unreadable metadata omits the dependency lines")
	assert.Contains(t, string(out), "Name: broken\n")
}

func TestTerminalReportOptionalFields(t *testing.T) {
	report := models.Report{
		Packages: []models.Package{
			{
				Name:             "myproj",
				Version:          "0.1.0",
				Location:         "/site-packages",
				EditableLocation: "/home/user/src/myproj",
				LatestVersion:    "0.2.0",
				RequiresKnown:    true,
				Files:            []string{"myproj/__init__.py"},
			},
		},
	}

	out, err := (&TerminalReporter{}).Report(report)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "Editable project location: /home/user/src/myproj\n")
	assert.Contains(t, s, "Latest: 0.2.0\n")
	assert.Contains(t, s, "Files:\n  myproj/__init__.py\n")
}

func TestJSONReport(t *testing.T) {
	report := sampleReport()
	report.NotFound = []string{"nosuchpkg"}
	report.Packages = append(report.Packages, models.Package{
		Name: "broken", Version: "1.0", Location: "/site-packages",
	})

	out, err := (&JSONReporter{}).Report(report)
	require.NoError(t, err)

	var decoded struct {
		Summary struct {
			Shown    int `json:"shown"`
			NotFound int `json:"not_found"`
		} `json:"summary"`
		Packages []struct {
			Name       string    `json:"name"`
			Requires   *[]string `json:"requires"`
			RequiredBy *[]string `json:"required_by"`
		} `json:"packages"`
		NotFound []string `json:"not_found"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, 3, decoded.Summary.Shown)
	assert.Equal(t, 1, decoded.Summary.NotFound)
	assert.Equal(t, []string{"nosuchpkg"}, decoded.NotFound)

	require.Len(t, decoded.Packages, 3)
	require.NotNil(t, decoded.Packages[0].Requires)
	assert.Equal(t, []string{"certifi", "charset-normalizer", "idna", "urllib3"}, *decoded.Packages[0].Requires)
	require.NotNil(t, decoded.Packages[1].Requires)
	assert.Empty(t, *decoded.Packages[1].Requires, "zero dependencies is an empty list")
	assert.Nil(t, decoded.Packages[2].Requires, "unknown dependencies serialize as null")
	assert.Nil(t, decoded.Packages[2].RequiredBy)
}

func TestYAMLReport(t *testing.T) {
	out, err := (&YAMLReporter{}).Report(sampleReport())
	require.NoError(t, err)

	var decoded struct {
		Summary struct {
			Shown int `yaml:"shown"`
		} `yaml:"summary"`
		Packages []struct {
			Name     string   `yaml:"name"`
			Requires []string `yaml:"requires"`
		} `yaml:"packages"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	assert.Equal(t, 2, decoded.Summary.Shown)
	require.Len(t, decoded.Packages, 2)
	assert.Equal(t, "requests", decoded.Packages[0].Name)
	assert.Contains(t, decoded.Packages[0].Requires, "idna")
}
