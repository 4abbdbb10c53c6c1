package webserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/somnial/somnial/internal/log"
	"github.com/somnial/somnial/internal/metrics"
)

// Store is the point storage engine as seen by the HTTP surface
type Store interface {
	Append(ctx context.Context, p metrics.Point) error
	RangeQuery(ctx context.Context, namespace, id string, start, end *int64) ([]metrics.Sample, error)
	LatestPoints(ctx context.Context, namespace, id string, limit int) ([]metrics.Sample, error)
	ListSeries(ctx context.Context, namespace string, page, perPage int) ([]metrics.SeriesInfo, int64, error)
}

type ReadyChecker interface {
	Ready() bool
}

// WebServer ingests points and serves range queries to the external
// charting consumer. Writers supply only the namespace string as their
// capability; there is no further authorization.
type WebServer struct {
	CmdOpts
	http.Server
	log.Logger
	ctx          context.Context
	store        Store
	readyChecker ReadyChecker
}

func Init(ctx context.Context, opts CmdOpts, store Store, rc ReadyChecker) (*WebServer, error) {
	if opts.WebDisable {
		return nil, nil
	}
	mux := http.NewServeMux()
	s := &WebServer{
		Server: http.Server{
			Addr:           opts.WebAddr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeaderBytes: 1 << 20,
			Handler:        corsMiddleware(mux),
		},
		ctx:          ctx,
		Logger:       log.GetLogger(ctx),
		CmdOpts:      opts,
		store:        store,
		readyChecker: rc,
	}

	// literal patterns take precedence over the namespace wildcards
	mux.HandleFunc("/liveness", s.handleLiveness)
	mux.HandleFunc("/readiness", s.handleReadiness)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/{namespace}", s.handleNamespace)
	mux.HandleFunc("/{namespace}/{id}", s.handlePoints)

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, err
	}

	go func() { panic(s.Serve(ln)) }()

	return s, nil
}

func (s *WebServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	if s.ctx.Err() != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status": "unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "ok"}`))
}

func (s *WebServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if s.readyChecker.Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "ok"}`))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"status": "busy"}`))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // charting consumers live elsewhere
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
