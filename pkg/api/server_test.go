package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s := NewServer(nil, nil, nil)
	w := doRequest(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
}

func TestDrainEventsEmpty(t *testing.T) {
	s := NewServer(nil, nil, nil)
	w := doRequest(t, s, http.MethodGet, "/api/v1/events")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Events []json.RawMessage `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Empty(t, body.Events)
}

func TestPressWithoutDevice(t *testing.T) {
	s := NewServer(nil, nil, nil)
	w := doRequest(t, s, http.MethodPost, "/api/v1/press/execute")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDumpWithoutDevice(t *testing.T) {
	s := NewServer(nil, nil, nil)
	w := doRequest(t, s, http.MethodGet, "/api/v1/dump/patch/0")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type stubLister struct {
	err error
}

func (s stubLister) ListPartition(partition int) ([]string, []string, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if partition > 1 {
		return nil, nil, errors.New("operation not supported")
	}
	return []string{"TESTVOL"}, nil, nil
}

func TestAkaiDisk(t *testing.T) {
	s := NewServer(nil, stubLister{}, nil)
	w := doRequest(t, s, http.MethodGet, "/api/v1/akai/disk")
	require.Equal(t, http.StatusOK, w.Code)

	var disk struct {
		Partitions []struct {
			Number  int `json:"Number"`
			Volumes []struct {
				Name string `json:"Name"`
			} `json:"Volumes"`
		} `json:"Partitions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &disk))
	require.Len(t, disk.Partitions, 1)
	require.Equal(t, "TESTVOL", disk.Partitions[0].Volumes[0].Name)
}

func TestAkaiDiskUnconfigured(t *testing.T) {
	s := NewServer(nil, nil, nil)
	w := doRequest(t, s, http.MethodGet, "/api/v1/akai/disk")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAkaiDiskToolFailure(t *testing.T) {
	s := NewServer(nil, stubLister{err: errors.New("read error")}, nil)
	w := doRequest(t, s, http.MethodGet, "/api/v1/akai/disk")
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
