package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/somnial/somnial/internal/metrics"
)

const seriesPerPage = 12

// handlePoints serves the per-series endpoint: POST ingests one point,
// GET returns the stored samples ascending by timestamp
func (s *WebServer) handlePoints(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	id := r.PathValue("id")
	if namespace == "" || id == "" {
		http.Error(w, "namespace and metric id are required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.ingestPoint(w, r, namespace, id)
	case http.MethodGet:
		s.queryPoints(w, r, namespace, id)
	case http.MethodOptions:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ingestPoint validates the raw value, stamps the point with the current
// server time and appends it. The timestamp is never taken from the
// caller, so client clock skew cannot reorder writers.
func (s *WebServer) ingestPoint(w http.ResponseWriter, r *http.Request, namespace, id string) {
	raw := r.URL.Query().Get("value")
	if raw == "" {
		pointsRejected.Inc()
		http.Error(w, "value parameter is required", http.StatusBadRequest)
		return
	}
	value, err := metrics.ParseValue(raw)
	if err != nil {
		pointsRejected.Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.CmdOpts.WriteTimeout)
	defer cancel()
	p := metrics.Point{
		Namespace: namespace,
		ID:        id,
		Value:     value,
		Timestamp: time.Now().Unix(),
	}
	if err := s.store.Append(ctx, p); err != nil {
		storeErrors.Inc()
		s.Logger.WithError(err).WithField("namespace", namespace).WithField("id", id).Error("point append failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pointsIngested.Inc()
	w.WriteHeader(http.StatusOK)
}

// queryPoints serves a range scan with optional inclusive start/end bounds
// and an optional limit returning only the most recent points
func (s *WebServer) queryPoints(w http.ResponseWriter, r *http.Request, namespace, id string) {
	var (
		err        error
		status     = http.StatusInternalServerError
		start, end *int64
		limit      int
		samples    []metrics.Sample
	)

	defer func() {
		if err != nil {
			http.Error(w, err.Error(), status)
		}
	}()

	if start, err = queryInt64(r, "start"); err != nil {
		status = http.StatusBadRequest
		return
	}
	if end, err = queryInt64(r, "end"); err != nil {
		status = http.StatusBadRequest
		return
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			err = errors.New("limit must be a positive integer")
			status = http.StatusBadRequest
			return
		}
	}

	if limit > 0 {
		samples, err = s.store.LatestPoints(r.Context(), namespace, id, limit)
	} else {
		samples, err = s.store.RangeQuery(r.Context(), namespace, id, start, end)
	}
	if err != nil {
		storeErrors.Inc()
		return
	}
	rangeQueries.Inc()

	etag := seriesETag(samples)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	b, _ := jsoniter.ConfigFastest.Marshal(samples)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, err = w.Write(b)
}

// NamespaceListing is one page of the series stored under a namespace
type NamespaceListing struct {
	Namespace   string               `json:"namespace"`
	Series      []metrics.SeriesInfo `json:"series"`
	CurrentPage int                  `json:"current_page"`
	TotalPages  int                  `json:"total_pages"`
}

// handleNamespace lists the series of a namespace, most recently updated
// first, paginated
func (s *WebServer) handleNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	if namespace == "" {
		http.Error(w, "namespace is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.listSeries(w, r, namespace)
	case http.MethodOptions:
		w.Header().Set("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *WebServer) listSeries(w http.ResponseWriter, r *http.Request, namespace string) {
	var (
		err    error
		status = http.StatusInternalServerError
	)

	defer func() {
		if err != nil {
			http.Error(w, err.Error(), status)
		}
	}()

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			err = errors.New("page must be a positive integer")
			status = http.StatusBadRequest
			return
		}
	}

	series, total, err := s.store.ListSeries(r.Context(), namespace, page, seriesPerPage)
	if err != nil {
		storeErrors.Inc()
		return
	}

	listing := NamespaceListing{
		Namespace:   namespace,
		Series:      series,
		CurrentPage: page,
		TotalPages:  int((total + seriesPerPage - 1) / seriesPerPage),
	}
	b, _ := jsoniter.ConfigFastest.Marshal(listing)
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(b)
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer unix timestamp", name)
	}
	return &v, nil
}

// seriesETag derives a cache validator from the newest timestamp and the
// sample count, matching what charting consumers poll for
func seriesETag(samples []metrics.Sample) string {
	if len(samples) == 0 {
		return `"empty"`
	}
	return fmt.Sprintf(`"%d:%d"`, samples[len(samples)-1].Timestamp, len(samples))
}
