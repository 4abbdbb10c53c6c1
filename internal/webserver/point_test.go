package webserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somnial/somnial/internal/metrics"
	"github.com/somnial/somnial/internal/testutil"
)

func newTestServer(store Store) *WebServer {
	return &WebServer{
		CmdOpts: CmdOpts{WriteTimeout: time.Second},
		Logger:  logrus.StandardLogger(),
		store:   store,
	}
}

func doPoints(s *WebServer, method, target string, headers map[string]string) *http.Response {
	r := httptest.NewRequest(method, target, nil)
	r.SetPathValue("namespace", "deploy")
	r.SetPathValue("id", "binary_size")
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.handlePoints(w, r)
	return w.Result()
}

func TestIngestPoint(t *testing.T) {
	store := &testutil.MockStore{}
	s := newTestServer(store)

	before := time.Now().Unix()
	resp := doPoints(s, http.MethodPost, "/deploy/binary_size?value=10485760", nil)
	defer resp.Body.Close()
	after := time.Now().Unix()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	points := store.AppendedPoints()
	require.Len(t, points, 1)
	assert.Equal(t, "deploy", points[0].Namespace)
	assert.Equal(t, "binary_size", points[0].ID)
	assert.Equal(t, 10485760.0, points[0].Value)
	// timestamp must come from the server clock, not the caller
	assert.GreaterOrEqual(t, points[0].Timestamp, before)
	assert.LessOrEqual(t, points[0].Timestamp, after)
}

func TestIngestPointRejectsBadValue(t *testing.T) {
	for _, raw := range []string{"not-a-number", "NaN", "Inf", "-Inf", ""} {
		store := &testutil.MockStore{}
		s := newTestServer(store)
		resp := doPoints(s, http.MethodPost, "/deploy/build_duration?value="+raw, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, raw)
		assert.Empty(t, store.AppendedPoints(), "no write may be attempted for %q", raw)
	}
}

func TestIngestPointStoreFailure(t *testing.T) {
	store := &testutil.MockStore{ToErr: assert.AnError}
	s := newTestServer(store)
	resp := doPoints(s, http.MethodPost, "/deploy/binary_size?value=1", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestQueryPoints(t *testing.T) {
	store := &testutil.MockStore{Samples: []metrics.Sample{
		{Timestamp: 100, Value: 5},
		{Timestamp: 100, Value: 7},
		{Timestamp: 160, Value: 6},
	}}
	s := newTestServer(store)

	resp := doPoints(s, http.MethodGet, "/deploy/binary_size?start=50&end=200", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	require.NotNil(t, store.LastStart)
	require.NotNil(t, store.LastEnd)
	assert.EqualValues(t, 50, *store.LastStart)
	assert.EqualValues(t, 200, *store.LastEnd)

	body, _ := io.ReadAll(resp.Body)
	var got []metrics.Sample
	assert.NoError(t, jsoniter.ConfigFastest.Unmarshal(body, &got))
	assert.Equal(t, store.Samples, got)
	assert.Equal(t, `"160:3"`, resp.Header.Get("ETag"))
}

func TestQueryPointsNoBounds(t *testing.T) {
	store := &testutil.MockStore{}
	s := newTestServer(store)
	resp := doPoints(s, http.MethodGet, "/deploy/binary_size", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, store.LastStart)
	assert.Nil(t, store.LastEnd)
	assert.Equal(t, `"empty"`, resp.Header.Get("ETag"))
}

func TestQueryPointsBadBounds(t *testing.T) {
	s := newTestServer(&testutil.MockStore{})
	for _, target := range []string{
		"/deploy/binary_size?start=abc",
		"/deploy/binary_size?end=abc",
		"/deploy/binary_size?limit=0",
		"/deploy/binary_size?limit=many",
	} {
		resp := doPoints(s, http.MethodGet, target, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestQueryPointsLimit(t *testing.T) {
	store := &testutil.MockStore{Samples: []metrics.Sample{{Timestamp: 100, Value: 1}}}
	s := newTestServer(store)
	resp := doPoints(s, http.MethodGet, "/deploy/binary_size?limit=50", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 50, store.LastLimit)
}

func TestQueryPointsNotModified(t *testing.T) {
	store := &testutil.MockStore{Samples: []metrics.Sample{{Timestamp: 160, Value: 6}}}
	s := newTestServer(store)

	resp := doPoints(s, http.MethodGet, "/deploy/binary_size", nil)
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	assert.Equal(t, `"160:1"`, etag)

	resp = doPoints(s, http.MethodGet, "/deploy/binary_size", map[string]string{"If-None-Match": etag})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestHandlePointsMethodNotAllowed(t *testing.T) {
	s := newTestServer(&testutil.MockStore{})
	resp := doPoints(s, http.MethodDelete, "/deploy/binary_size", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Allow"))
}

func TestHandleNamespace(t *testing.T) {
	store := &testutil.MockStore{
		Series: []metrics.SeriesInfo{
			{ID: "binary_size", PointCount: 10, LastUpdated: 500},
			{ID: "build_duration", PointCount: 3, LastUpdated: 400},
		},
		Total: 14,
	}
	s := newTestServer(store)

	r := httptest.NewRequest(http.MethodGet, "/deploy?page=1", nil)
	r.SetPathValue("namespace", "deploy")
	w := httptest.NewRecorder()
	s.handleNamespace(w, r)
	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var got NamespaceListing
	assert.NoError(t, jsoniter.ConfigFastest.Unmarshal(body, &got))
	assert.Equal(t, "deploy", got.Namespace)
	assert.Len(t, got.Series, 2)
	assert.Equal(t, 1, got.CurrentPage)
	assert.Equal(t, 2, got.TotalPages)
}

func TestHandleNamespaceBadPage(t *testing.T) {
	s := newTestServer(&testutil.MockStore{})
	r := httptest.NewRequest(http.MethodGet, "/deploy?page=-1", nil)
	r.SetPathValue("namespace", "deploy")
	w := httptest.NewRecorder()
	s.handleNamespace(w, r)
	resp := w.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
