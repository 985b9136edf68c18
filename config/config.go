// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageAPI   = "api"
	StorageMongo = "mongo"
)

type Config struct {
	Port           string
	PublicURL      string
	AllowedOrigins []string

	StorageType    string
	ChefAPIURL     string
	ChefAPITimeout time.Duration
	ChefAPIRetries int

	MongoURI        string
	MongoDB         string
	MongoCollection string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PendingTTL    time.Duration

	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
	AuthDomain   string
	AuthClientID string

	SessionIdle time.Duration
	RateLimit   float64
	RateBurst   int

	LogLevel string
	LogDev   bool

	NotifyDisplay time.Duration
	NotifyExit    time.Duration
}

// Load reads envFile (if non-empty) and then the process environment.
// A missing default ".env" is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if envFile != ".env" || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	var p parser
	cfg := Config{
		Port:           p.str("PORT", "8080"),
		PublicURL:      p.str("PUBLIC_URL", "http://localhost:5173"),
		AllowedOrigins: p.list("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		StorageType:    strings.ToLower(p.str("STORAGE_TYPE", StorageAPI)),
		ChefAPIURL:     p.str("CHEF_API_URL", "http://localhost:8000"),
		ChefAPITimeout: p.duration("CHEF_API_TIMEOUT", 15*time.Second),
		ChefAPIRetries: p.int("CHEF_API_RETRIES", 2),

		MongoURI:        p.str("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         p.str("MONGO_DB", "ai_chef"),
		MongoCollection: p.str("MONGO_COLLECTION", "recipes"),

		RedisAddr:     p.str("REDIS_ADDR", ""),
		RedisPassword: p.str("REDIS_PASSWORD", ""),
		RedisDB:       p.int("REDIS_DB", 0),
		PendingTTL:    p.duration("PENDING_TTL", time.Hour),

		JWTSecret:    p.str("JWT_SECRET", ""),
		JWTIssuer:    p.str("JWT_ISSUER", ""),
		JWTAudience:  p.str("JWT_AUDIENCE", ""),
		AuthDomain:   p.str("AUTH_DOMAIN", ""),
		AuthClientID: p.str("AUTH_CLIENT_ID", ""),

		SessionIdle: p.duration("SESSION_IDLE", 30*time.Minute),
		RateLimit:   p.float("RATE_LIMIT", 1),
		RateBurst:   p.int("RATE_BURST", 5),

		LogLevel: p.str("LOG_LEVEL", "info"),
		LogDev:   p.bool("LOG_DEV", false),

		NotifyDisplay: p.duration("NOTIFY_DISPLAY", 5000*time.Millisecond),
		NotifyExit:    p.duration("NOTIFY_EXIT", 300*time.Millisecond),
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageType {
	case StorageAPI:
		if c.ChefAPIURL == "" {
			errs = append(errs, errors.New("CHEF_API_URL is required when STORAGE_TYPE=api"))
		}
	case StorageMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORAGE_TYPE=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_TYPE must be %q or %q, got %q", StorageAPI, StorageMongo, c.StorageType))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_BURST must be positive"))
	}
	if c.NotifyDisplay <= 0 || c.NotifyExit <= 0 {
		errs = append(errs, errors.New("NOTIFY_DISPLAY and NOTIFY_EXIT must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// AllowsOrigin reports whether origin may open a websocket.
func (c Config) AllowsOrigin(origin string) bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// parser collects every malformed value instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) list(key string, def []string) []string {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *parser) int(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// duration accepts Go durations ("5s") or bare milliseconds ("5000").
func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
