package sitepackages

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Files returns the installed file paths from the distribution's RECORD
// file, relative to the site-packages directory.
func (d *Distribution) Files() ([]string, error) {
	f, err := os.Open(filepath.Join(d.path, "RECORD"))
	if err != nil {
		return nil, fmt.Errorf("reading RECORD for %s: %w", d.rawName, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing RECORD for %s: %w", d.rawName, err)
	}

	files := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			files = append(files, row[0])
		}
	}
	return files, nil
}

// directURL mirrors the PEP 610 direct_url.json layout.
type directURL struct {
	URL     string `json:"url"`
	DirInfo struct {
		Editable bool `json:"editable"`
	} `json:"dir_info"`
}

// EditableLocation returns the source directory of an editable install, or
// "" when the distribution is not installed editable.
func (d *Distribution) EditableLocation() (string, error) {
	data, err := os.ReadFile(filepath.Join(d.path, "direct_url.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var du directURL
	if err := json.Unmarshal(data, &du); err != nil {
		return "", fmt.Errorf("parsing direct_url.json for %s: %w", d.rawName, err)
	}
	if !du.DirInfo.Editable {
		return "", nil
	}
	u, err := url.Parse(du.URL)
	if err != nil || u.Scheme != "file" {
		return "", nil
	}
	return u.Path, nil
}
