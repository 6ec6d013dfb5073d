package main

import (
	"fmt"

	"github.com/aretw0/majbot/pkg/adapters/bolt"
	"github.com/aretw0/majbot/pkg/adapters/redis"
	"github.com/aretw0/majbot/pkg/persistence/middleware"
	"github.com/aretw0/majbot/pkg/ports"
	"github.com/spf13/cobra"
)

// openStore selects the session store: redis when an address is configured,
// otherwise the local bbolt file. The locker is only set for redis.
// With MAJBOT_SESSION_KEY set the store encrypts captured dictionaries.
func openStore(cmd *cobra.Command) (ports.SessionStore, ports.DistributedLocker, func(), error) {
	mws, err := storeMiddlewares()
	if err != nil {
		return nil, nil, nil, err
	}

	addr := cfg.RedisAddr
	if cmd.Flags().Changed("redis") {
		addr, _ = cmd.Flags().GetString("redis")
	}

	if addr != "" {
		store := redis.New(addr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.SessionTTL))
		locker := redis.NewLocker(store.Client(), "majbot:lock:")
		return middleware.Chain(store, mws...), locker, func() { _ = store.Close() }, nil
	}

	path := cfg.BoltPath
	if cmd.Flags().Changed("db") {
		path, _ = cmd.Flags().GetString("db")
	}
	store, err := bolt.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return middleware.Chain(store, mws...), nil, func() { _ = store.Close() }, nil
}

func storeMiddlewares() ([]middleware.Middleware, error) {
	if cfg.SessionKey == "" {
		return nil, nil
	}

	active, err := middleware.ParseKey(cfg.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("MAJBOT_SESSION_KEY: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, s := range cfg.SessionFallbackKeys {
		key, err := middleware.ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("MAJBOT_SESSION_FALLBACK_KEYS: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}

	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return []middleware.Middleware{mw}, nil
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("redis", "", "Redis address for shared sessions (default $MAJBOT_REDIS_ADDR)")
	cmd.Flags().String("db", "", "bbolt file used when no redis is configured (default $MAJBOT_BOLT_PATH)")
}
