package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/cache"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/guard"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/models"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/redis/rueidis"
)

// Per-namespace key prefixes. Every credential kind gets its own keyspace
// so a device code can never collide with a download token.
const (
	prefixDeviceCodes    = "dc:"
	prefixUserCodes      = "uc:"
	prefixPollTimestamps = "poll:"
	prefixDownloadTokens = "dl:"
	prefixResetTokens    = "pr:"
)

// credentialCaches bundles the typed cache namespaces the credential engine
// runs on. All namespaces share one connection when a remote backend is
// configured.
type credentialCaches struct {
	Authorizations cache.Cache[models.DeviceAuthorization]
	UserCodes      cache.Cache[string]
	Polls          cache.Cache[int64]
	Downloads      cache.Cache[guard.Record[services.ArchiveClaim]]
	Resets         cache.Cache[guard.Record[services.ResetClaim]]

	closer func() error
}

// Close releases the shared backend connection, if any.
func (c *credentialCaches) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// initializeCaches builds the credential cache set for the configured
// backend.
func initializeCaches(ctx context.Context, cfg *config.Config) (*credentialCaches, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		return initializeRedisCaches(ctx, cfg)
	case config.CacheBackendRueidis:
		return initializeRueidisCaches(ctx, cfg)
	default:
		log.Println("Credential cache: memory (single instance only)")
		return &credentialCaches{
			Authorizations: cache.NewMemoryCache[models.DeviceAuthorization](),
			UserCodes:      cache.NewMemoryCache[string](),
			Polls:          cache.NewMemoryCache[int64](),
			Downloads:      cache.NewMemoryCache[guard.Record[services.ArchiveClaim]](),
			Resets:         cache.NewMemoryCache[guard.Record[services.ResetClaim]](),
		}, nil
	}
}

func initializeRedisCaches(ctx context.Context, cfg *config.Config) (*credentialCaches, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("Credential cache: redis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)
	return &credentialCaches{
		Authorizations: cache.NewRedisCacheFromClient[models.DeviceAuthorization](client, prefixDeviceCodes),
		UserCodes:      cache.NewRedisCacheFromClient[string](client, prefixUserCodes),
		Polls:          cache.NewRedisCacheFromClient[int64](client, prefixPollTimestamps),
		Downloads:      cache.NewRedisCacheFromClient[guard.Record[services.ArchiveClaim]](client, prefixDownloadTokens),
		Resets:         cache.NewRedisCacheFromClient[guard.Record[services.ResetClaim]](client, prefixResetTokens),
		closer:         client.Close,
	}, nil
}

func initializeRueidisCaches(ctx context.Context, cfg *config.Config) (*credentialCaches, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.RedisAddr},
		Password:     cfg.RedisPassword,
		SelectDB:     cfg.RedisDB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rueidis client: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Printf("Credential cache: rueidis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)
	return &credentialCaches{
		Authorizations: cache.NewRueidisCacheFromClient[models.DeviceAuthorization](client, prefixDeviceCodes),
		UserCodes:      cache.NewRueidisCacheFromClient[string](client, prefixUserCodes),
		Polls:          cache.NewRueidisCacheFromClient[int64](client, prefixPollTimestamps),
		Downloads:      cache.NewRueidisCacheFromClient[guard.Record[services.ArchiveClaim]](client, prefixDownloadTokens),
		Resets:         cache.NewRueidisCacheFromClient[guard.Record[services.ResetClaim]](client, prefixResetTokens),
		closer: func() error {
			client.Close()
			return nil
		},
	}, nil
}
