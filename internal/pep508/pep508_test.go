package pep508

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"requests", "requests"},
		{"Flask", "flask"},
		{"Flask_SQLAlchemy", "flask-sqlalchemy"},
		{"zope.interface", "zope-interface"},
		{"ruamel.yaml.clib", "ruamel-yaml-clib"},
		{"foo--bar__baz", "foo-bar-baz"},
		{"  Django  ", "django"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantName  string
		wantSpec  string
		wantURL   string
		wantExtra []string
		hasMarker bool
	}{
		{
			name:     "bare name",
			line:     "requests",
			wantName: "requests",
		},
		{
			name:     "name with specifier",
			line:     "charset-normalizer>=2,<4",
			wantName: "charset-normalizer",
			wantSpec: ">=2,<4",
		},
		{
			name:     "parenthesized specifier",
			line:     "Werkzeug (>=3.0.0)",
			wantName: "werkzeug",
			wantSpec: ">=3.0.0",
		},
		{
			name:      "extras",
			line:      "requests[socks,security]>=2.28",
			wantName:  "requests",
			wantSpec:  ">=2.28",
			wantExtra: []string{"socks", "security"},
		},
		{
			name:      "marker",
			line:      `colorama>=0.4 ; sys_platform == "win32"`,
			wantName:  "colorama",
			wantSpec:  ">=0.4",
			hasMarker: true,
		},
		{
			name:      "marker without specifier",
			line:      `importlib-metadata ; python_version < "3.8"`,
			wantName:  "importlib-metadata",
			hasMarker: true,
		},
		{
			name:     "direct url reference",
			line:     "pip @ https://github.com/pypa/pip/archive/22.0.2.zip",
			wantName: "pip",
			wantURL:  "https://github.com/pypa/pip/archive/22.0.2.zip",
		},
		{
			name:      "normalized name",
			line:      `Flask_Login>=0.6 ; extra == "auth"`,
			wantName:  "flask-login",
			wantSpec:  ">=0.6",
			hasMarker: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequirement(tt.line)
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, req.Name)
			assert.Equal(t, tt.wantSpec, req.Specifier)
			assert.Equal(t, tt.wantURL, req.URL)
			assert.Equal(t, tt.wantExtra, req.Extras)
			assert.Equal(t, tt.hasMarker, req.Marker != nil)
			assert.Equal(t, tt.line, req.Raw)
		})
	}
}

func TestParseRequirementErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no name", ">=1.0"},
		{"unterminated extras", "requests[socks"},
		{"empty marker", "requests ;"},
		{"bad marker", `requests ; python_version >`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequirement(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestParseRequirementSemicolonInsideQuotes(t *testing.T) {
	req, err := ParseRequirement(`foo ; sys_platform == "a;b" or os_name == "posix"`)
	require.NoError(t, err)
	require.NotNil(t, req.Marker)
	assert.Empty(t, req.Specifier)
	assert.True(t, req.Marker.Evaluate(Environment{OSName: "posix"}, nil))
}
