// Package talent fetches scored creator profiles from the Talent Protocol
// API and normalizes them into strict domain entries at the boundary.
package talent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/creatorscore/engine/internal/adapters/cache"
	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/pkg/logger"
	"github.com/creatorscore/engine/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultPageSize       = 25
	defaultRequestsPerSec = 2
	defaultTimeout        = 15 * time.Second

	cacheKeyTopCreators = "talent:top_creators"
)

// Result is one fetched score snapshot. ShortCount is set when the API
// returned fewer profiles than requested; callers surface it downstream
// rather than treating the snapshot as complete.
type Result struct {
	Entries    []model.ScoredEntry
	Requested  int
	ShortCount bool
}

// Client talks to the profile search API. Page requests are paced through a
// rate limiter to respect the API's limits.
type Client struct {
	baseURL  string
	apiKey   string
	httpc    *http.Client
	limiter  *rate.Limiter
	pageSize int
	cache    cache.Cache
	logger   logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithPageSize sets the per-request page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithRequestsPerSecond sets the pacing between page requests.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithCache sets the snapshot cache.
func WithCache(ch cache.Cache) Option {
	return func(c *Client) {
		if ch != nil {
			c.cache = ch
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a profile search client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(defaultRequestsPerSec), 1),
		pageSize: defaultPageSize,
		cache:    cache.Nop{},
		logger:   logger.Get().Named("talent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// profilePayload mirrors the loosely typed profile JSON the API returns.
// Field fallbacks (display_name over name) are resolved here so nothing
// loose leaks past this package.
type profilePayload struct {
	ID          string   `json:"id"`
	TalentUUID  string   `json:"talent_uuid"`
	DisplayName string   `json:"display_name"`
	Name        string   `json:"name"`
	ImageURL    string   `json:"image_url"`
	Score       *float64 `json:"score"`
}

type searchResponse struct {
	Profiles []profilePayload `json:"profiles"`
}

// TopCreators fetches the count highest-scored creator profiles, paginating
// until enough are collected or the API runs out. Callers typically request
// the reward window plus an excess so post-filtering still yields a full
// window.
func (c *Client) TopCreators(ctx context.Context, count int) (Result, error) {
	if count <= 0 {
		return Result{}, fmt.Errorf("%w: count %d", ErrBadRequest, count)
	}

	if v, ok := c.cache.Get(cacheKeyTopCreators); ok {
		if cached, ok := v.(Result); ok && cached.Requested >= count {
			return cached, nil
		}
	}

	entries := make([]model.ScoredEntry, 0, count)
	for page := 1; len(entries) < count; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("rate limit wait: %w", err)
		}

		profiles, err := c.fetchPage(ctx, page)
		if err != nil {
			metrics.RecordTalentFetchError()
			return Result{}, err
		}
		metrics.RecordTalentPage()

		for _, p := range profiles {
			entry, err := normalizeProfile(p)
			if err != nil {
				return Result{}, err
			}
			entries = append(entries, entry)
			if len(entries) == count {
				break
			}
		}

		if len(profiles) < c.pageSize {
			// Last page; the API has no more profiles.
			break
		}
	}

	res := Result{
		Entries:    entries,
		Requested:  count,
		ShortCount: len(entries) < count,
	}
	if res.ShortCount {
		c.logger.Warn(ctx, "short profile fetch",
			logger.Int("requested", count),
			logger.Int("received", len(entries)),
		)
	}
	c.cache.Set(cacheKeyTopCreators, res)
	return res, nil
}

// InvalidateCache drops the cached snapshot so the next fetch hits the API.
func (c *Client) InvalidateCache() {
	c.cache.Invalidate(cacheKeyTopCreators)
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]profilePayload, error) {
	u, err := url.Parse(c.baseURL + "/profiles")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrUnavailable, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: page %d returned %d", ErrUnavailable, page, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrMalformedProfile, page, err)
	}
	return body.Profiles, nil
}

// normalizeProfile maps one loose profile into a strict ScoredEntry,
// failing loudly instead of letting a bad score corrupt downstream math.
func normalizeProfile(p profilePayload) (model.ScoredEntry, error) {
	id := p.TalentUUID
	if id == "" {
		id = p.ID
	}
	if id == "" {
		return model.ScoredEntry{}, fmt.Errorf("%w: profile without id", ErrMalformedProfile)
	}

	name := p.DisplayName
	if name == "" {
		name = p.Name
	}
	if name == "" {
		name = id
	}

	if p.Score == nil {
		return model.ScoredEntry{}, fmt.Errorf("%w: profile %s has no score", ErrMalformedProfile, id)
	}
	score := *p.Score
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return model.ScoredEntry{}, fmt.Errorf("%w: profile %s has score %v", ErrMalformedProfile, id, score)
	}

	return model.ScoredEntry{
		ID:          id,
		DisplayName: name,
		AvatarURL:   p.ImageURL,
		Score:       int64(math.Round(score)),
	}, nil
}
