package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/diet-planner/internal/config"
	"github.com/fdg312/diet-planner/internal/dbmigrate"
	"github.com/fdg312/diet-planner/internal/httpserver"
	"github.com/fdg312/diet-planner/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.SetupWithLevel(cfg.LogLevel)

	printStartupBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := validateConfig(cfg); err != nil {
		fatal(logger, "invalid configuration", err)
	}

	if cfg.RunMigrationsOnStartup && cfg.StoreMode == config.StoreModePostgres {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			fatal(logger, "startup migrations", err)
		}

		logger.Info("startup migrations", "command", "up", "using", source)
		if err := dbmigrate.Run(ctx, "up", dbURL, "", logger); err != nil {
			fatal(logger, "startup migrations failed", err)
		}
		logger.Info("startup migrations completed")
	}

	server, err := httpserver.New(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "server init failed", err)
	}
	defer server.Close()

	if err := server.Start(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		server.Close()
		os.Exit(1)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// No secrets are ever printed, only "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Println("========== Diet Planner API ==========")
	log.Printf("  env              = %s", cfg.Env)
	log.Printf("  port             = %d", cfg.Port)
	log.Printf("  log_level        = %s", cfg.LogLevel)

	log.Println("---- storage ----")
	log.Printf("  store_mode       = %s", cfg.StoreMode)
	switch cfg.StoreMode {
	case config.StoreModeSQLite:
		log.Printf("  sqlite_path      = %s", cfg.SQLitePath)
	case config.StoreModePostgres:
		log.Printf("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
		log.Printf("  direct           = %s", setOrNot(cfg.DatabaseURLDirect))
		log.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)
	case config.StoreModeRedis:
		log.Printf("  redis_addr       = %s (db=%d)", cfg.Redis.Addr, cfg.Redis.DB)
		log.Printf("  redis_password   = %s", setOrNot(cfg.Redis.Password))
		log.Printf("  redis_prefix     = %s", cfg.Redis.KeyPrefix)
	}
	log.Printf("  profile_key      = %s", cfg.ProfileStorageKey)
	log.Printf("  plan_key         = %s", cfg.PlanStorageKey)
	log.Printf("  catalog_seed     = %s", nonEmptyOrDash(cfg.CatalogSeedPath))

	log.Println("---- auth ----")
	log.Printf("  auth_mode        = %s", cfg.AuthMode)
	log.Printf("  auth_required    = %t", cfg.AuthRequired)
	if cfg.AuthEnabled() {
		log.Printf("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))
		log.Printf("  jwt_ttl_minutes  = %d", cfg.JWTTTLMinutes)
	}

	log.Println("---- http ----")
	log.Printf("  cors_origins     = %s", nonEmptyOrDash(strings.Join(cfg.CORSAllowedOrigins, ",")))
	if cfg.RateLimitRPS > 0 {
		log.Printf("  rate_limit       = %g rps (burst=%d)", cfg.RateLimitRPS, cfg.RateLimitBurst)
	} else {
		log.Printf("  rate_limit       = off")
	}

	log.Println("---- export ----")
	log.Printf("  export_mode      = %s", cfg.Export.Mode)
	if cfg.Export.Mode != config.BlobModeLocal {
		log.Printf("  s3: %s", cfg.Export.S3.DiagnosticsSummary())
	}

	log.Println("======================================")
}

// validateConfig performs checks that only matter outside local envs.
func validateConfig(cfg *config.Config) error {
	isProd := cfg.Env == "production" || cfg.Env == "staging"

	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		return fmt.Errorf("JWT_SECRET must not be 'change_me' in %s with AUTH_REQUIRED=1", cfg.Env)
	}
	if isProd && cfg.StoreMode == config.StoreModePostgres && cfg.DatabaseURL == "" {
		return fmt.Errorf("STORE_MODE=postgres but no DATABASE_URL configured in %s", cfg.Env)
	}
	return nil
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
