package config

import (
	"fmt"
	"net/url"
	"strings"
)

const redactedSuffix = "...redacted"

// FormatRedacted renders the resolved configuration with secrets masked.
func FormatRedacted(cfg Config) string {
	var b strings.Builder

	lines := []struct {
		key   string
		value string
	}{
		{"app_env", cfg.AppEnv},
		{"log_level", cfg.LogLevel},
		{"http_port", fmt.Sprintf("%d", cfg.HTTPPort)},
		{"telegram_token", maskBotToken(cfg.TelegramToken)},
		{"jwt_secret", maskSecret(cfg.JWTSecret)},
		{"jwt_access_token_ttl", cfg.AccessTokenTTL.String()},
		{"jwt_refresh_token_ttl", cfg.RefreshTokenTTL.String()},
		{"cookie_domain", cfg.CookieDomain},
		{"cors_origins", strings.Join(cfg.CORSOrigins, ",")},
		{"mongo_uri", redactURI(cfg.MongoURI)},
		{"mongo_db", cfg.MongoDB},
		{"redis_url", redactURI(cfg.RedisURL)},
		{"telegram_auth_max_age", cfg.TelegramAuthMaxAge.String()},
		{"telegram_bot_enabled", fmt.Sprintf("%t", cfg.BotEnabled)},
		{"admin_telegram_id", fmt.Sprintf("%d", cfg.AdminTelegramID)},
	}

	for _, line := range lines {
		fmt.Fprintf(&b, "%s: %s\n", line.key, line.value)
	}

	return b.String()
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "redacted"
}

// maskBotToken keeps the public bot id that precedes ":" in a bot token.
func maskBotToken(token string) string {
	botID, _, ok := strings.Cut(token, ":")
	if !ok || botID == "" {
		return maskSecret(token)
	}
	return botID + ":" + redactedSuffix
}

// redactURI drops userinfo from connection strings.
func redactURI(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "unparseable" + redactedSuffix
	}
	parsed.User = nil

	return parsed.String()
}
