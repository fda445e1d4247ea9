package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
)

// parseFlags overlays command-line flags:
//
//	-a string   HTTP listen address (":8080")
//	-g string   gRPC health listen address (":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT signing secret
//	-t int      signup token ttl, minutes
//	-l int      login token ttl, minutes
//	-k int      bcrypt cost
//	-r string   Redis address for auth rate limiting
//	-q string   AMQP URL for ledger events
//	-b string   S3 bucket for CSV export
//	-v string   log level
//
// Unknown flags are ignored so -c/-config can share os.Args.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-l", "-k", "-r", "-q", "-b", "-v"})

	fs := flag.NewFlagSet("fintrack", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.HealthAddrGRPC, "g", cfg.HealthAddrGRPC, "gRPC health listen address")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "JWT signing secret")
	signupTTL := fs.Int("t", int(cfg.SignupTokenTTL.Minutes()), "signup token ttl (in minutes)")
	loginTTL := fs.Int("l", int(cfg.LoginTokenTTL.Minutes()), "login token ttl (in minutes)")
	fs.IntVar(&cfg.BcryptCost, "k", cfg.BcryptCost, "bcrypt cost")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.AMQPURL, "q", cfg.AMQPURL, "AMQP URL")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for exports")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.SignupTokenTTL = time.Duration(*signupTTL) * time.Minute
	cfg.LoginTokenTTL = time.Duration(*loginTTL) * time.Minute
	return nil
}
