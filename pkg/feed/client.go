package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/types"
)

// DefaultURL is NASA's public ISS trajectory data set
const DefaultURL = "https://nasa-public-data.s3.amazonaws.com/iss-coords/current/ISS_OEM/ISS.OEM_J2K_EPH.xml"

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isstracker_feed_fetch_total",
		Help: "Feed pulls by result",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "isstracker_feed_fetch_duration_seconds",
		Help:    "Duration of upstream feed pulls",
		Buckets: prometheus.DefBuckets,
	})
)

// Source produces the current set of state vectors
type Source interface {
	Fetch(ctx context.Context) ([]types.StateVector, error)
}

// Config holds feed client configuration
type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches the OEM feed from a URL or a local file path
type Client struct {
	cfg        Config
	httpClient *http.Client
	group      singleflight.Group
	log        *logger.L
}

// NewClient creates a feed client
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: logger.New("feed"),
	}
}

// Fetch implements Source.Fetch
//
// Callers arriving while a pull is in flight receive that pull's result.
func (c *Client) Fetch(ctx context.Context) ([]types.StateVector, error) {
	v, err, shared := c.group.Do(c.cfg.URL, func() (interface{}, error) {
		return c.pull(ctx)
	})
	if err != nil {
		return nil, err
	}

	vectors := v.([]types.StateVector)
	if shared {
		vectors = append([]types.StateVector(nil), vectors...)
	}
	return vectors, nil
}

func (c *Client) pull(ctx context.Context) ([]types.StateVector, error) {
	start := time.Now()
	defer func() { fetchDuration.Observe(time.Since(start).Seconds()) }()

	data, err := c.read(ctx)
	if err != nil {
		fetchTotal.WithLabelValues("fetch_error").Inc()
		c.log.Errorf("fetch %s: %s", c.cfg.URL, err)
		return nil, err
	}

	vectors, err := Decode(bytes.NewReader(data))
	if err != nil {
		fetchTotal.WithLabelValues("parse_error").Inc()
		c.log.Errorf("decode %s: %s", c.cfg.URL, err)
		return nil, err
	}

	fetchTotal.WithLabelValues("ok").Inc()
	c.log.Infof("fetched %d state vectors from %s in %s", len(vectors), c.cfg.URL, time.Since(start))
	return vectors, nil
}

// read returns the raw document from a file path or over HTTP
func (c *Client) read(ctx context.Context) ([]byte, error) {
	url := c.cfg.URL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		data, err := os.ReadFile(url)
		if err != nil {
			return nil, &fault.FetchError{URL: url, Err: err}
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &fault.FetchError{URL: url, Err: err}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &fault.FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &fault.FetchError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &fault.FetchError{URL: url, Err: err}
	}
	return data, nil
}
