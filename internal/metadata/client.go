// Package metadata looks up descriptive movie fields from an optional upstream
// service and fills the ones an administrator left blank.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-reviews/internal/domain"
	"github.com/Clark-Hu/movie-reviews/internal/metrics"
)

// ErrNotFound is returned when upstream cannot find the requested movie.
var ErrNotFound = errors.New("metadata: not found")

// Result holds the fields upstream may supply.
type Result struct {
	Director    *string
	Genre       *string
	Description *string
}

// Client defines the contract for querying the upstream metadata API.
type Client interface {
	Lookup(ctx context.Context, title string, year int) (*Result, error)
}

// HTTPClient implements Client over HTTP behind a circuit breaker.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Result]
	logger  *zap.Logger
}

// NewHTTPClient constructs a new HTTP-backed metadata client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("metadata")
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse metadata url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse metadata url: %q is not absolute", baseURL)
	}

	settings := gobreaker.Settings{
		Name:        "metadata",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		breaker: gobreaker.NewCircuitBreaker[*Result](settings),
		logger:  logger,
	}, nil
}

// State reports the circuit breaker state for health output.
func (c *HTTPClient) State() string {
	return c.breaker.State().String()
}

// Lookup retrieves metadata by title and year.
func (c *HTTPClient) Lookup(ctx context.Context, title string, year int) (*Result, error) {
	result, err := c.breaker.Execute(func() (*Result, error) {
		return c.fetch(ctx, title, year)
	})
	switch {
	case err == nil:
		metrics.RecordMetadataLookup("hit")
	case errors.Is(err, ErrNotFound):
		metrics.RecordMetadataLookup("miss")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordMetadataLookup("open")
	default:
		metrics.RecordMetadataLookup("error")
	}
	return result, err
}

func (c *HTTPClient) fetch(ctx context.Context, title string, year int) (*Result, error) {
	rel := &url.URL{Path: c.baseURL.Path + "/movies"}
	q := rel.Query()
	q.Set("title", title)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode metadata response: %w", err)
		}
		return convertToResult(payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn("unexpected upstream status", zap.Int("status", resp.StatusCode), zap.String("title", title))
		return nil, fmt.Errorf("metadata: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	Title    string   `json:"title"`
	Year     *int     `json:"year"`
	Director *string  `json:"director"`
	Genres   []string `json:"genres"`
	Genre    *string  `json:"genre"`
	Plot     *string  `json:"plot"`
}

func convertToResult(payload apiResponse) *Result {
	result := &Result{
		Director:    trimmed(payload.Director),
		Description: trimmed(payload.Plot),
		Genre:       trimmed(payload.Genre),
	}
	if result.Genre == nil && len(payload.Genres) > 0 {
		genres := make([]string, 0, len(payload.Genres))
		for _, g := range payload.Genres {
			if g = strings.TrimSpace(g); g != "" {
				genres = append(genres, g)
			}
		}
		if len(genres) > 0 {
			joined := strings.Join(genres, ", ")
			result.Genre = &joined
		}
	}
	result.Director = clip(result.Director, domain.MaxDirectorLength)
	result.Genre = clip(result.Genre, domain.MaxGenreLength)
	return result
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// clip truncates to max runes so enriched values still pass validation.
func clip(s *string, max int) *string {
	if s == nil {
		return nil
	}
	r := []rune(*s)
	if len(r) <= max {
		return s
	}
	v := strings.TrimSpace(string(r[:max]))
	return &v
}
