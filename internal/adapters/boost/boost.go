// Package boost resolves the set of creators holding a qualifying token
// balance. Two independent holder queries run concurrently; whichever
// succeeds contributes to the union, so one failing source degrades the
// boost set instead of losing it.
package boost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/creatorscore/engine/internal/adapters/cache"
	"github.com/creatorscore/engine/pkg/logger"
	"github.com/creatorscore/engine/pkg/metrics"
)

// Default source configuration constants.
const (
	defaultTimeout = 10 * time.Second

	cacheKeyBoostedIDs = "boost:ids"
)

// Query returns the talent UUIDs holding at least the qualifying balance
// on one source.
type Query interface {
	HolderIDs(ctx context.Context) ([]string, error)
}

// Source merges holder queries into the boosted-ID set.
type Source struct {
	queries []Query
	cache   cache.Cache
	logger  logger.Logger
}

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithCache sets the boosted-set cache. Token balances drift, so the cache
// TTL is the boost freshness policy.
func WithCache(ch cache.Cache) Option {
	return func(s *Source) {
		if ch != nil {
			s.cache = ch
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSource creates a boosted-set source over the given queries.
func NewSource(queries []Query, opts ...Option) *Source {
	s := &Source{
		queries: queries,
		cache:   cache.Nop{},
		logger:  logger.Get().Named("boost"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BoostedIDs returns the union of holder IDs across all queries. Queries
// run concurrently and are all awaited regardless of individual outcome;
// only when every query fails is an error returned.
func (s *Source) BoostedIDs(ctx context.Context) (map[string]struct{}, error) {
	if v, ok := s.cache.Get(cacheKeyBoostedIDs); ok {
		if cached, ok := v.(map[string]struct{}); ok {
			return cached, nil
		}
	}

	type outcome struct {
		ids []string
		err error
	}
	outcomes := make([]outcome, len(s.queries))

	var wg sync.WaitGroup
	for i, q := range s.queries {
		wg.Add(1)
		go func(i int, q Query) {
			defer wg.Done()
			ids, err := q.HolderIDs(ctx)
			outcomes[i] = outcome{ids: ids, err: err}
		}(i, q)
	}
	wg.Wait()

	union := make(map[string]struct{})
	failures := 0
	for i, o := range outcomes {
		if o.err != nil {
			failures++
			metrics.RecordBoostQueryError()
			s.logger.Warn(ctx, "holder query failed",
				logger.Int("query", i),
				logger.Error(o.err),
			)
			continue
		}
		metrics.RecordBoostQuerySuccess()
		for _, id := range o.ids {
			union[id] = struct{}{}
		}
	}

	if len(s.queries) > 0 && failures == len(s.queries) {
		return nil, fmt.Errorf("%w: all %d holder queries failed", ErrAllQueriesFailed, failures)
	}

	s.cache.Set(cacheKeyBoostedIDs, union)
	return union, nil
}

// InvalidateCache drops the cached boosted set.
func (s *Source) InvalidateCache() {
	s.cache.Invalidate(cacheKeyBoostedIDs)
}

// HTTPQuery fetches token holders from a balance endpoint and filters them
// by the qualifying threshold.
type HTTPQuery struct {
	url       string
	threshold float64
	httpc     *http.Client
}

// NewHTTPQuery creates a holder query against url, keeping holders whose
// balance meets threshold.
func NewHTTPQuery(url string, threshold float64, httpc *http.Client) *HTTPQuery {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPQuery{url: url, threshold: threshold, httpc: httpc}
}

type holderPayload struct {
	TalentUUID string  `json:"talent_uuid"`
	Balance    float64 `json:"balance"`
}

type holdersResponse struct {
	Holders []holderPayload `json:"holders"`
}

// HolderIDs fetches and filters the holder list.
func (q *HTTPQuery) HolderIDs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build holder request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := q.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrQueryFailed, resp.StatusCode)
	}

	var body holdersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	ids := make([]string, 0, len(body.Holders))
	for _, h := range body.Holders {
		if h.TalentUUID != "" && h.Balance >= q.threshold {
			ids = append(ids, h.TalentUUID)
		}
	}
	return ids, nil
}
