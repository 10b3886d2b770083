package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipshow-dev/pipshow/internal/cache"
)

func newTestServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch r.URL.Path {
		case "/pypi/flask/json":
			fmt.Fprint(w, `{"info": {"name": "Flask", "version": "3.0.2", "requires_dist": ["Werkzeug>=3.0.0", "click>=8.1.3"]}}`)
		case "/pypi/empty/json":
			fmt.Fprint(w, `{"info": {"name": "empty"}}`)
		case "/pypi/garbled/json":
			fmt.Fprint(w, `not json`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(t *testing.T) (*PyPIClient, *int) {
	srv, hits := newTestServer(t)
	client := NewPyPIClient(nil, 5*time.Second)
	client.BaseURL = srv.URL
	return client, hits
}

func TestLatestVersion(t *testing.T) {
	client, _ := newTestClient(t)

	version, err := client.LatestVersion(context.Background(), "flask")
	require.NoError(t, err)
	assert.Equal(t, "3.0.2", version)
}

func TestLatestVersionNormalizesName(t *testing.T) {
	client, _ := newTestClient(t)

	version, err := client.LatestVersion(context.Background(), "Flask")
	require.NoError(t, err)
	assert.Equal(t, "3.0.2", version)
}

func TestLatestVersionNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.LatestVersion(context.Background(), "nosuchpkg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLatestVersionUsesCache(t *testing.T) {
	srv, hits := newTestServer(t)
	t.Setenv("HOME", t.TempDir())
	fileCache, err := cache.New("pipshow-test", time.Hour)
	require.NoError(t, err)

	client := NewPyPIClient(fileCache, 5*time.Second)
	client.BaseURL = srv.URL

	for i := 0; i < 3; i++ {
		version, err := client.LatestVersion(context.Background(), "flask")
		require.NoError(t, err)
		assert.Equal(t, "3.0.2", version)
	}
	assert.Equal(t, 1, *hits, "subsequent lookups served from cache")
}

func TestLatestVersionBadResponses(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.LatestVersion(context.Background(), "empty")
	assert.Error(t, err, "missing version field")

	_, err = client.LatestVersion(context.Background(), "garbled")
	assert.Error(t, err)
}
