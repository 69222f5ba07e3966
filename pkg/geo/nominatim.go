package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/vjranagit/isstracker/pkg/fault"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim instance
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Geocoder resolves a coordinate to a place name at a map zoom level.
// It returns fault.ErrNoPlace when nothing is there at that zoom.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64, zoom int) (string, error)
}

// NominatimConfig holds reverse-geocoder configuration
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Language  string
	Timeout   time.Duration

	// RequestsPerSecond throttles outbound calls; the public instance
	// allows one per second
	RequestsPerSecond float64
}

// NominatimClient calls the Nominatim reverse endpoint
type NominatimClient struct {
	cfg        NominatimConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NewNominatimClient creates a reverse-geocoding client
func NewNominatimClient(cfg NominatimConfig) *NominatimClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &NominatimClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Reverse implements Geocoder.Reverse
func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64, zoom int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &fault.FetchError{URL: c.cfg.BaseURL, Err: err}
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", strconv.Itoa(zoom))
	q.Set("accept-language", c.cfg.Language)
	endpoint := c.cfg.BaseURL + "/reverse?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &fault.FetchError{URL: endpoint, Err: err}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &fault.FetchError{URL: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &fault.FetchError{URL: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &fault.ParseError{What: "reverse geocoding response", Err: err}
	}
	if body.Error != "" || body.DisplayName == "" {
		return "", fault.ErrNoPlace
	}
	return body.DisplayName, nil
}
