package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations are written as Go
// duration strings ("1h", "24h"). Fields left out of the file keep their
// current value.
type JsonConfig struct {
	HTTPAddr       *string         `json:"http_addr"`
	HealthAddrGRPC *string         `json:"health_addr_grpc"`
	DatabaseDSN    *string         `json:"database_dsn"`
	SecretKey      *string         `json:"secret_key"`
	SignupTokenTTL *timex.Duration `json:"signup_token_ttl"`
	LoginTokenTTL  *timex.Duration `json:"login_token_ttl"`
	BcryptCost     *int            `json:"bcrypt_cost"`
	LogLevel       *string         `json:"log_level"`

	RedisAddr      *string         `json:"redis_addr"`
	RedisPassword  *string         `json:"redis_password"`
	RedisDB        *int            `json:"redis_db"`
	AuthRateLimit  *int            `json:"auth_rate_limit"`
	AuthRateWindow *timex.Duration `json:"auth_rate_window"`

	AMQPURL      *string `json:"amqp_url"`
	AMQPExchange *string `json:"amqp_exchange"`
	AMQPQueue    *string `json:"amqp_queue"`

	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
}

// parseJson overlays the file given by -c/-config in args. No flag means no
// file and no change.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(raw, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setValue(&cfg.HTTPAddr, jc.HTTPAddr)
	setValue(&cfg.HealthAddrGRPC, jc.HealthAddrGRPC)
	setValue(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setValue(&cfg.SecretKey, jc.SecretKey)
	setDuration(&cfg.SignupTokenTTL, jc.SignupTokenTTL)
	setDuration(&cfg.LoginTokenTTL, jc.LoginTokenTTL)
	setValue(&cfg.BcryptCost, jc.BcryptCost)
	setValue(&cfg.LogLevel, jc.LogLevel)
	setValue(&cfg.RedisAddr, jc.RedisAddr)
	setValue(&cfg.RedisPassword, jc.RedisPassword)
	setValue(&cfg.RedisDB, jc.RedisDB)
	setValue(&cfg.AuthRateLimit, jc.AuthRateLimit)
	setDuration(&cfg.AuthRateWindow, jc.AuthRateWindow)
	setValue(&cfg.AMQPURL, jc.AMQPURL)
	setValue(&cfg.AMQPExchange, jc.AMQPExchange)
	setValue(&cfg.AMQPQueue, jc.AMQPQueue)
	setValue(&cfg.S3RootUser, jc.S3RootUser)
	setValue(&cfg.S3RootPassword, jc.S3RootPassword)
	setValue(&cfg.S3Bucket, jc.S3Bucket)
	setValue(&cfg.S3Region, jc.S3Region)
	setValue(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	return nil
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
