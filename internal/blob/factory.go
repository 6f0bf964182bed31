package blob

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	appcfg "github.com/fdg312/diet-planner/internal/config"
)

// NewBlobStore builds an export store using mode local|s3|auto.
// A nil Store with mode=local means exports are streamed back in the response.
func NewBlobStore(ctx context.Context, cfg appcfg.ExportConfig, logger *slog.Logger) (Store, string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "blob")

	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		logger.Info("mode=local (forced)")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			lvl := slog.LevelInfo
			if level == "WARN" {
				lvl = slog.LevelWarn
			}
			logger.Log(ctx, lvl, msg, "code", code, "summary", cfg.S3.DiagnosticsSummary())
			logger.Info("mode=local (auto, S3 not configured)")
			return nil, appcfg.BlobModeLocal, nil
		}

		logger.Info("s3 ready", "code", "s3_ready", "summary", cfg.S3.DiagnosticsSummary())
		store, err := NewS3Store(ctx, cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
		if err != nil {
			logger.Warn("s3 init failed, fallback=local", "error", err)
			return nil, appcfg.BlobModeLocal, nil
		}

		logger.Info("mode=s3 (auto, configured)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			logger.Error("s3 config incomplete", "code", "s3_config_incomplete", "missing", missing, "summary", cfg.S3.DiagnosticsSummary())
			return nil, "", fmt.Errorf("EXPORT_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		logger.Info("s3 ready", "code", "s3_ready", "summary", cfg.S3.DiagnosticsSummary())
		store, err := NewS3Store(ctx, cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
		if err != nil {
			logger.Error("s3 init failed", "error", err)
			return nil, "", fmt.Errorf("EXPORT_MODE=s3 init failed: %w", err)
		}

		logger.Info("mode=s3 (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported export mode: %s", mode)
	}
}
