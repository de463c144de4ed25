// Package config defines the configuration contract and handles loading and validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyTelegramToken      = "TELEGRAM_TOKEN"
	KeyJWTSecret          = "JWT_SECRET"
	KeyAccessTokenTTL     = "JWT_ACCESS_TOKEN_TTL"
	KeyRefreshTokenTTL    = "JWT_REFRESH_TOKEN_TTL"
	KeyCookieDomain       = "COOKIE_DOMAIN"
	KeyCORSOrigins        = "CORS_ORIGINS"
	KeyMongoURI           = "MONGO_URI"
	KeyMongoDB            = "MONGO_DB"
	KeyRedisURL           = "REDIS_URL"
	KeyAppEnv             = "APP_ENV"
	KeyLogLevel           = "LOG_LEVEL"
	KeyHTTPPort           = "HTTP_PORT"
	KeyTelegramAuthMaxAge = "TELEGRAM_AUTH_MAX_AGE"
	KeyBotEnabled         = "TELEGRAM_BOT_ENABLED"
	KeyAdminTelegramID    = "ADMIN_TELEGRAM_ID"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv   = EnvProduction
	DefaultLogLevel = "info"
	DefaultHTTPPort = 8080

	// Telegram login payloads older than this are rejected.
	DefaultTelegramAuthMaxAge     = 60 * time.Second
	DevelopmentTelegramAuthMaxAge = 24 * time.Hour

	// Recommended database names by environment.
	DefaultMongoDBProd = "meal_tracker"
	DefaultMongoDBDev  = "meal_tracker_dev"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the service must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the API.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather; keys the login widget HMAC.",
	},
	{
		Key:         KeyJWTSecret,
		Example:     "change-me",
		Required:    true,
		Description: "HS256 secret for access and refresh tokens.",
	},
	{
		Key:         KeyAccessTokenTTL,
		Example:     "15m",
		Required:    true,
		Description: "Access token lifetime.",
		Notes:       "Go duration, or a number with a d/w suffix, or bare seconds.",
	},
	{
		Key:         KeyRefreshTokenTTL,
		Example:     "7d",
		Required:    true,
		Description: "Refresh token signature lifetime.",
		Notes:       "The stored record always expires 7 days after issue.",
	},
	{
		Key:         KeyCookieDomain,
		Example:     "example.com",
		Required:    true,
		Description: "Domain attribute of the refresh token cookie.",
	},
	{
		Key:         KeyCORSOrigins,
		Example:     "https://app.example.com,http://localhost:5173",
		Required:    true,
		Description: "Comma-separated list of allowed CORS origins.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string.",
	},
	{
		Key:         KeyMongoDB,
		Example:     DefaultMongoDBProd + " / " + DefaultMongoDBDev,
		Required:    true,
		Description: "MongoDB database name.",
		Notes:       "Recommended: production=" + DefaultMongoDBProd + ", development=" + DefaultMongoDBDev + ".",
	},
	{
		Key:         KeyRedisURL,
		Example:     "redis://localhost:6379/0",
		Description: "Optional Redis connection; when set refresh tokens are stored in Redis instead of MongoDB.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format, cookie flags and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP API port.",
	},
	{
		Key:         KeyTelegramAuthMaxAge,
		Example:     "60s",
		Default:     DefaultTelegramAuthMaxAge.String(),
		Description: "Freshness window for Telegram login payloads.",
		Notes:       "Defaults to " + DevelopmentTelegramAuthMaxAge.String() + " when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyBotEnabled,
		Example:     "true",
		Default:     "false",
		Description: "Start the companion bot (long polling) next to the API.",
	},
	{
		Key:         KeyAdminTelegramID,
		Example:     "123456789",
		Description: "Telegram user_id promoted to ADMIN at startup.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	TelegramToken      string
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	CookieDomain       string
	CORSOrigins        []string
	MongoURI           string
	MongoDB            string
	RedisURL           string
	AppEnv             string
	LogLevel           string
	HTTPPort           int
	TelegramAuthMaxAge time.Duration
	BotEnabled         bool
	AdminTelegramID    int64
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:        firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		TelegramToken: strings.TrimSpace(os.Getenv(KeyTelegramToken)),
		JWTSecret:     strings.TrimSpace(os.Getenv(KeyJWTSecret)),
		CookieDomain:  strings.TrimSpace(os.Getenv(KeyCookieDomain)),
		CORSOrigins:   splitList(os.Getenv(KeyCORSOrigins)),
		MongoURI:      strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:       strings.TrimSpace(os.Getenv(KeyMongoDB)),
		RedisURL:      strings.TrimSpace(os.Getenv(KeyRedisURL)),
		LogLevel:      firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:      DefaultHTTPPort,
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.TelegramToken == "" {
		missing = append(missing, KeyTelegramToken)
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, KeyJWTSecret)
	}

	accessRaw := strings.TrimSpace(os.Getenv(KeyAccessTokenTTL))
	if accessRaw == "" {
		missing = append(missing, KeyAccessTokenTTL)
	}
	refreshRaw := strings.TrimSpace(os.Getenv(KeyRefreshTokenTTL))
	if refreshRaw == "" {
		missing = append(missing, KeyRefreshTokenTTL)
	}

	if cfg.CookieDomain == "" {
		missing = append(missing, KeyCookieDomain)
	}
	if len(cfg.CORSOrigins) == 0 {
		missing = append(missing, KeyCORSOrigins)
	}
	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}
	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return Config{}, fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI)
	}

	if cfg.AccessTokenTTL, err = parseTTL(KeyAccessTokenTTL, accessRaw); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = parseTTL(KeyRefreshTokenTTL, refreshRaw); err != nil {
		return Config{}, err
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	cfg.TelegramAuthMaxAge = DefaultTelegramAuthMaxAge
	if cfg.IsDevelopment() {
		cfg.TelegramAuthMaxAge = DevelopmentTelegramAuthMaxAge
	}
	if maxAgeRaw := strings.TrimSpace(os.Getenv(KeyTelegramAuthMaxAge)); maxAgeRaw != "" {
		if cfg.TelegramAuthMaxAge, err = parseTTL(KeyTelegramAuthMaxAge, maxAgeRaw); err != nil {
			return Config{}, err
		}
	}

	if botRaw := strings.TrimSpace(os.Getenv(KeyBotEnabled)); botRaw != "" {
		enabled, parseErr := strconv.ParseBool(botRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyBotEnabled, parseErr)
		}
		cfg.BotEnabled = enabled
	}

	if adminRaw := strings.TrimSpace(os.Getenv(KeyAdminTelegramID)); adminRaw != "" {
		adminID, parseErr := strconv.ParseInt(adminRaw, 10, 64)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyAdminTelegramID, parseErr)
		}
		if adminID <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyAdminTelegramID)
		}
		cfg.AdminTelegramID = adminID
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// parseTTL accepts Go durations ("15m", "1h30m"), day/week counts ("7d", "2w")
// and bare seconds ("900").
func parseTTL(key, raw string) (time.Duration, error) {
	value := strings.ToLower(strings.TrimSpace(raw))

	var ttl time.Duration
	switch {
	case value == "":
		return 0, fmt.Errorf("invalid %s: empty duration", key)
	case strings.HasSuffix(value, "d"), strings.HasSuffix(value, "w"):
		unit := 24 * time.Hour
		if strings.HasSuffix(value, "w") {
			unit = 7 * 24 * time.Hour
		}
		count, err := strconv.ParseInt(value[:len(value)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		if ttl, err = scaleTTL(key, count, unit); err != nil {
			return 0, err
		}
	default:
		if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
			if ttl, err = scaleTTL(key, seconds, time.Second); err != nil {
				return 0, err
			}
			break
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		ttl = parsed
	}

	if ttl <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return ttl, nil
}

// scaleTTL multiplies count by unit, rejecting products that overflow
// time.Duration.
func scaleTTL(key string, count int64, unit time.Duration) (time.Duration, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	if count > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("invalid %s: duration out of range", key)
	}
	return time.Duration(count) * unit, nil
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
