package volatility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"EarnScan/internal/domain/models"
	"EarnScan/pkg/cache"
	xhttp "EarnScan/pkg/http"
	applogger "EarnScan/pkg/logger"
)

const bulkPath = "/volatility/bulk"

// Gateway calls the bulk volatility service. Non-null records are cached per
// symbol under the caller's cache hint so repeated runs on the same day only
// ask for symbols that were not seen yet.
type Gateway struct {
	baseURL string
	apiKey  string
	http    *xhttp.RetryClient
	cache   cache.Service
	ttl     time.Duration
	log     *applogger.Logger
}

// Option configures Gateway.
type Option func(*Gateway)

// WithCache enables the per-symbol cache.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(g *Gateway) {
		g.cache = c
		g.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(g *Gateway) {
		g.log = l
	}
}

// New creates a Gateway.
func New(baseURL, apiKey string, rc *xhttp.RetryClient, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    rc,
		log:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type bulkRequest struct {
	Symbols   []string `json:"symbols"`
	CacheHint string   `json:"cacheHint,omitempty"`
}

type bulkResponse struct {
	Results map[string]*models.VolatilityRecord `json:"results"`
}

// BulkVolatility returns one entry per requested symbol; unavailable symbols map to nil.
func (g *Gateway) BulkVolatility(ctx context.Context, symbols []string, cacheHint string) (map[string]*models.VolatilityRecord, error) {
	out := make(map[string]*models.VolatilityRecord, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	missing := g.fromCache(ctx, symbols, cacheHint, out)
	if len(missing) == 0 {
		return out, nil
	}

	var resp bulkResponse
	err := g.http.Do(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    g.baseURL + bulkPath,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-API-Key":    g.apiKey,
		},
		Body: bulkRequest{Symbols: missing, CacheHint: cacheHint},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", bulkPath, err)
	}

	fresh := make(map[string]interface{}, len(missing))
	for _, sym := range missing {
		rec := lookup(resp.Results, sym)
		out[sym] = rec
		if rec != nil {
			fresh[key(cacheHint, sym)] = rec
		}
	}

	if g.cache != nil && len(fresh) > 0 {
		if err := g.cache.MSet(ctx, fresh, g.ttl); err != nil {
			g.log.Warn("volatility cache write failed", applogger.Error(err))
		}
	}
	return out, nil
}

// fromCache fills out with cached records and returns the symbols still needed.
func (g *Gateway) fromCache(ctx context.Context, symbols []string, hint string, out map[string]*models.VolatilityRecord) []string {
	if g.cache == nil || hint == "" {
		return symbols
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = key(hint, sym)
	}

	cached, err := cache.MGetTyped[models.VolatilityRecord](ctx, g.cache, keys...)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		g.log.Warn("volatility cache read failed", applogger.Error(err))
		return symbols
	}

	missing := make([]string, 0, len(symbols))
	for i, sym := range symbols {
		if rec, ok := cached[keys[i]]; ok {
			r := rec
			out[sym] = &r
			continue
		}
		missing = append(missing, sym)
	}

	if hits := len(symbols) - len(missing); hits > 0 {
		g.log.Debug("volatility cache hits", applogger.Int("hits", hits), applogger.Int("misses", len(missing)))
	}
	return missing
}

// lookup tolerates the service echoing symbols in a different case.
func lookup(results map[string]*models.VolatilityRecord, sym string) *models.VolatilityRecord {
	if rec, ok := results[sym]; ok {
		return rec
	}
	for k, rec := range results {
		if strings.EqualFold(k, sym) {
			return rec
		}
	}
	return nil
}

func key(hint, sym string) string {
	return cache.GenerateKeyWithParams("vol", hint, sym)
}
