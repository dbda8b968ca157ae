package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/account"
	"github.com/innovareai/sam-prospector/internal/dialect"
	"github.com/innovareai/sam-prospector/internal/enrich"
	"github.com/innovareai/sam-prospector/internal/search"
	"github.com/innovareai/sam-prospector/internal/session"
	"github.com/innovareai/sam-prospector/internal/store"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "prospector.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// env bundles the wired pipeline with its owned resources.
type env struct {
	Store    store.Store
	Client   unipile.Client
	Pipeline *search.Pipeline
	redis    *redis.Client
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline wires the full search pipeline from config.
func initPipeline(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	client, err := unipile.NewClient(cfg.Unipile.APIKey, cfg.Unipile.DSN)
	if err != nil {
		st.Close()
		return nil, err
	}

	e := &env{Store: st, Client: client}

	dialectCfg := dialect.DefaultConfig()
	if cfg.Search.LookupMatches > 0 {
		dialectCfg.LookupMatches = cfg.Search.LookupMatches
	}

	var lookupOpts []dialect.LookupOption
	if cfg.Cache.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			zap.L().Warn("invalid redis url, lookup cache disabled", zap.Error(err))
		} else {
			e.redis = redis.NewClient(redisOpts)
			ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
			lookupOpts = append(lookupOpts, dialect.WithCache(e.redis, ttl))
		}
	}

	resolver := dialect.NewLookupResolver(client, dialectCfg.LookupMatches, lookupOpts...)
	translator := dialect.NewTranslator(resolver, dialectCfg)
	accounts := account.NewResolver(st, client)

	trigger := enrich.NewDispatcher(cfg.Enrich.WebhookURL,
		time.Duration(cfg.Enrich.TimeoutSecs)*time.Second)
	persister := session.NewPersister(st, trigger)

	opts := search.DefaultOptions()
	opts.Dialect = dialectCfg
	if cfg.Search.MaxPages > 0 {
		opts.MaxPages = cfg.Search.MaxPages
	}
	if cfg.Search.PageIntervalMillis > 0 {
		opts.PageInterval = time.Duration(cfg.Search.PageIntervalMillis) * time.Millisecond
	}

	e.Pipeline = search.NewPipeline(accounts, translator, client, st, persister, opts)
	return e, nil
}
