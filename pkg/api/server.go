package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/types"
)

// Service is the set of queries the API exposes
type Service interface {
	ListEpochs(ctx context.Context, limit, offset string) ([]types.StateVector, error)
	Epoch(key string) (*types.StateVector, error)
	Speed(key string) (*types.SpeedResult, error)
	Location(ctx context.Context, key string) (*types.LocationResult, error)
	Now(ctx context.Context) (*types.NowResult, error)
}

// Server implements the HTTP API server
type Server struct {
	service Service
	addr    string
	timeout time.Duration
	server  *http.Server
	log     *logger.L
}

// NewServer creates a new API server
func NewServer(addr string, timeout time.Duration, service Service) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		service: service,
		addr:    addr,
		timeout: timeout,
		log:     logger.New("api"),
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register handlers
	s.handle(mux, "GET /epochs", s.handleEpochs)
	s.handle(mux, "GET /epochs/{epoch}", s.handleEpoch)
	s.handle(mux, "GET /epochs/{epoch}/speed", s.handleSpeed)
	s.handle(mux, "GET /epochs/{epoch}/location", s.handleLocation)
	s.handle(mux, "GET /now", s.handleNow)
	s.handle(mux, "GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
	}

	s.log.Infof("listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleEpochs refreshes from the feed and lists samples
func (s *Server) handleEpochs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vectors, err := s.service.ListEpochs(r.Context(), q.Get("limit"), q.Get("offset"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, vectors)
}

// handleEpoch returns a single sample
func (s *Server) handleEpoch(w http.ResponseWriter, r *http.Request) {
	sv, err := s.service.Epoch(r.PathValue("epoch"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, sv)
}

// handleSpeed returns the instantaneous speed of a sample
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Speed(r.PathValue("epoch"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, result)
}

// handleLocation returns the ground track and place name of a sample
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Location(r.Context(), r.PathValue("epoch"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, result)
}

// handleNow returns the sample closest to the current time
func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Now(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, result)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("encode response: %s", err)
	}
}

// writeError reports a domain error as {"error": ...} with status 200;
// clients rely on the payload, not the status code
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	id := w.Header().Get(requestIDHeader)
	switch {
	case fault.IsErrCorrupt(err), fault.IsTimestampError(err):
		s.log.Criticalf("[%s] %s %s: cache corruption: %s", id, r.Method, r.URL.Path, err)
	case fault.IsErrInvalid(err), fault.IsErrNotFound(err), fault.IsErrProcess(err):
		s.log.Debugf("[%s] %s %s: %s", id, r.Method, r.URL.Path, err)
	default:
		s.log.Errorf("[%s] %s %s: %s", id, r.Method, r.URL.Path, err)
	}

	if rec, ok := w.(*statusRecorder); ok {
		rec.failed = true
	}
	s.writeJSON(w, types.ErrorResult{Error: err.Error()})
}
