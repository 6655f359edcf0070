package form

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSubmitter(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/customers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(srv.URL+"/api/customers", time.Second)
	require.NoError(t, s.Create(context.Background(), Payload{"name": "Asha", "latitude": 1.5}))
	assert.Equal(t, "Asha", got["name"])
	assert.Equal(t, 1.5, got["latitude"])
}

func TestHTTPSubmitter_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server error"}`))
	}))
	defer srv.Close()

	err := NewHTTPSubmitter(srv.URL, 0).Create(context.Background(), Payload{})
	assert.ErrorContains(t, err, "500")
	assert.ErrorContains(t, err, "Server error")
}

func TestLoadDeployment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployment.yaml")
	content := "variant: partner\nendpoint: https://visits.example.com/\ntimeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := LoadDeployment(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d.Timeout)

	url, err := d.CreateURL()
	require.NoError(t, err)
	assert.Equal(t, "https://visits.example.com/api/partner-visits", url)
}

func TestLoadDeployment_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: other\nendpoint: nowhere\n"), 0o600))

	_, err := LoadDeployment(path)
	assert.ErrorContains(t, err, "invalid deployment")

	_, err = LoadDeployment(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
