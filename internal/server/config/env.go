package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads dotenvPath when it exists (variables already present in the
// process environment win) and overlays every recognised variable onto cfg.
func parseEnv(cfg *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	envString("FINTRACK_HTTP_ADDR", &cfg.HTTPAddr)
	envString("FINTRACK_HEALTH_ADDR", &cfg.HealthAddrGRPC)
	envString("DATABASE_DSN", &cfg.DatabaseDSN)
	envString("JWT_SECRET", &cfg.SecretKey)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("REDIS_ADDR", &cfg.RedisAddr)
	envString("REDIS_PASSWORD", &cfg.RedisPassword)
	envString("AMQP_URL", &cfg.AMQPURL)
	envString("AMQP_EXCHANGE", &cfg.AMQPExchange)
	envString("AMQP_QUEUE", &cfg.AMQPQueue)
	envString("S3_ROOT_USER", &cfg.S3RootUser)
	envString("S3_ROOT_PASSWORD", &cfg.S3RootPassword)
	envString("S3_BUCKET", &cfg.S3Bucket)
	envString("S3_REGION", &cfg.S3Region)
	envString("S3_BASE_ENDPOINT", &cfg.S3BaseEndpoint)

	return errors.Join(
		envDuration("SIGNUP_TOKEN_TTL", &cfg.SignupTokenTTL),
		envDuration("LOGIN_TOKEN_TTL", &cfg.LoginTokenTTL),
		envDuration("AUTH_RATE_WINDOW", &cfg.AuthRateWindow),
		envInt("BCRYPT_COST", &cfg.BcryptCost),
		envInt("REDIS_DB", &cfg.RedisDB),
		envInt("AUTH_RATE_LIMIT", &cfg.AuthRateLimit),
	)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
