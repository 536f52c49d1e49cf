// Package cache stores serialized tool results keyed by tool name and
// arguments. Every backend is optional and best-effort.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultKeyPrefix = "partselect:tool:"
	DefaultTTL       = 10 * time.Minute

	BackendNone    = "none"
	BackendUpstash = "upstash"
	BackendRedis   = "redis"
)

var ErrMiss = errors.New("cache miss")

type Cache interface {
	// Get returns ErrMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Config struct {
	Backend       string        `envconfig:"BACKEND" default:"none"`
	UpstashURL    string        `split_words:"true"`
	UpstashToken  string        `split_words:"true"`
	RedisAddr     string        `split_words:"true" default:"localhost:6379"`
	RedisPassword string        `split_words:"true"`
	RedisDB       int           `split_words:"true" default:"0"`
	TTL           time.Duration `envconfig:"TTL" default:"10m"`
	Timeout       time.Duration `split_words:"true" default:"2s"`
	KeyPrefix     string        `split_words:"true" default:"partselect:tool:"`
}

// New builds the configured backend. A nil Cache with a nil error means
// caching is disabled.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendUpstash:
		c, err := NewUpstash(UpstashConfig{URL: cfg.UpstashURL, Token: cfg.UpstashToken, Timeout: cfg.Timeout},
			WithKeyPrefix(cfg.KeyPrefix), WithTTL(cfg.TTL))
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.Timeout,
		}, WithKeyPrefix(cfg.KeyPrefix), WithTTL(cfg.TTL))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("cache: unsupported backend %q", cfg.Backend)
	}
}

// Key derives a stable key from the tool name and its arguments. Map keys
// are marshaled in sorted order, so equal arguments give equal keys.
func Key(tool string, args map[string]any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		raw = []byte(fmt.Sprint(args))
	}
	sum := sha256.Sum256(raw)
	return tool + ":" + hex.EncodeToString(sum[:12])
}

type settings struct {
	keyPrefix string
	ttl       time.Duration
}

type Option func(*settings)

func WithKeyPrefix(prefix string) Option {
	return func(s *settings) {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

func newSettings(opts []Option) (settings, error) {
	s := settings{keyPrefix: DefaultKeyPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.ttl < 0 {
		return settings{}, errors.New("cache: ttl must be >= 0")
	}
	return s, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
