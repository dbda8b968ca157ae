package dialect

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/resilience"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

// Resolver resolves free filter text to provider-specific IDs. An empty
// result with a nil error means "no match"; the translator degrades to
// keyword search in that case.
type Resolver interface {
	Resolve(ctx context.Context, accountID string, typ unipile.ParameterType, text string) ([]string, error)
}

// LookupResolver resolves filter text through the provider's parameter
// lookup API, keeping the top-N matches. An optional Redis cache fronts
// the lookup; cache failures degrade to a direct call.
type LookupResolver struct {
	client  unipile.Client
	matches int
	cache   *redis.Client
	ttl     time.Duration
}

// LookupOption configures a LookupResolver.
type LookupOption func(*LookupResolver)

// WithCache attaches a Redis read-through cache with the given TTL.
func WithCache(rdb *redis.Client, ttl time.Duration) LookupOption {
	return func(r *LookupResolver) {
		r.cache = rdb
		r.ttl = ttl
	}
}

// NewLookupResolver creates a resolver keeping the top `matches` IDs per
// lookup.
func NewLookupResolver(client unipile.Client, matches int, opts ...LookupOption) *LookupResolver {
	if matches <= 0 {
		matches = 3
	}
	r := &LookupResolver{client: client, matches: matches}
	for _, o := range opts {
		o(r)
	}
	return r
}

func cacheKey(typ unipile.ParameterType, text string) string {
	return "param:" + string(typ) + ":" + strings.ToLower(strings.TrimSpace(text))
}

// Resolve looks up filter text, consulting the cache first. Lookups are
// account-scoped at the provider but IDs are stable across accounts, so
// the cache key ignores the account.
func (r *LookupResolver) Resolve(ctx context.Context, accountID string, typ unipile.ParameterType, text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	key := cacheKey(typ, text)
	if r.cache != nil {
		raw, err := r.cache.Get(ctx, key).Result()
		if err == nil {
			var ids []string
			if jsonErr := json.Unmarshal([]byte(raw), &ids); jsonErr == nil {
				return ids, nil
			}
		} else if !eris.Is(err, redis.Nil) {
			zap.L().Debug("dialect: lookup cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("unipile", "search_parameters")
	params, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]unipile.Parameter, error) {
		return r.client.SearchParameters(ctx, accountID, typ, text, r.matches)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "dialect: resolve %s %q", typ, text)
	}

	ids := make([]string, 0, len(params))
	for _, p := range params {
		if id := p.Identifier(); id != "" {
			ids = append(ids, id)
		}
	}

	if r.cache != nil && len(ids) > 0 {
		if raw, jsonErr := json.Marshal(ids); jsonErr == nil {
			if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
				zap.L().Debug("dialect: lookup cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return ids, nil
}
