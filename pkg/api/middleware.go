package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const requestIDHeader = "X-Request-ID"

var (
	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isstracker_http_requests_total",
		Help: "HTTP requests by route and outcome",
	}, []string{"route", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "isstracker_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"route"})
)

// statusRecorder remembers the status code and whether an error
// payload was written
type statusRecorder struct {
	http.ResponseWriter
	status int
	failed bool
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handle registers h under pattern with request ids, metrics and an
// access log line
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		elapsed := time.Since(start)
		outcome := "ok"
		if rec.failed {
			outcome = "error"
		}
		requestTotal.WithLabelValues(pattern, outcome).Inc()
		requestDuration.WithLabelValues(pattern).Observe(elapsed.Seconds())
		s.log.Infof("[%s] %s %s %d %s", id, r.Method, r.URL.RequestURI(), rec.status, elapsed)
	})
}
