package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"complete/internal/core/app"
	"complete/internal/data/search"
	"complete/internal/shared/observability"
	"complete/internal/shared/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// resultGroup is the name of the only result group the search endpoint
// returns. Autocomplete widgets expect [[group, match...]].
const resultGroup = "filenames"

type ServerOptions struct {
	Addr      string
	Limit     int
	RateLimit float64
	Burst     int
	Metrics   bool
}

// SearchServer serves fuzzy filename search over HTTP, plus health and
// optional Prometheus metrics.
type SearchServer struct {
	opts     ServerOptions
	index    *search.Index
	health   *app.HealthService
	limiters *util.LimiterRegistry
	server   *http.Server
}

func NewSearchServer(opts ServerOptions, index *search.Index, health *app.HealthService) *SearchServer {
	s := &SearchServer{
		opts:   opts,
		index:  index,
		health: health,
	}
	if opts.RateLimit > 0 {
		s.limiters = util.NewLimiterRegistry(opts.RateLimit, opts.Burst, 10*time.Minute)
	}
	return s
}

func (s *SearchServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)

	if s.opts.Metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if s.health != nil {
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			status := s.health.Check(r.Context())
			w.Header().Set("Content-Type", "application/json")
			if status.Status != "up" {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(status)
		})
	}
	return mux
}

func (s *SearchServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	// Pages served from file:// or another port load the results too.
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodGet {
		s.fail(w, http.StatusMethodNotAllowed)
		return
	}
	if s.limiters != nil && !s.limiters.Get(clientKey(r)).Allow(1) {
		s.fail(w, http.StatusTooManyRequests)
		return
	}

	group := []any{resultGroup}
	// Only the first token counts when the parameter repeats.
	if values, ok := r.URL.Query()["token"]; ok && len(values) > 0 {
		for _, m := range s.index.Search(values[0], s.opts.Limit) {
			group = append(group, m)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode([][]any{group}); err != nil {
		slog.Warn("failed to write search response", "error", err)
	}
	observability.SearchRequestsTotal.WithLabelValues(statusClass(http.StatusOK)).Inc()
}

func (s *SearchServer) fail(w http.ResponseWriter, code int) {
	observability.SearchRequestsTotal.WithLabelValues(statusClass(code)).Inc()
	http.Error(w, http.StatusText(code), code)
}

// Start listens in the background. Errors after startup are logged.
func (s *SearchServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	slog.Info("search server starting", "addr", ln.Addr().String(), "files", s.index.Len())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("search server failed", "error", err)
		}
	}()
	return nil
}

func (s *SearchServer) Stop(ctx context.Context) error {
	if s.limiters != nil {
		s.limiters.Close()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
