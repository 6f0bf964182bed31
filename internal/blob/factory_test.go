package blob

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	appcfg "github.com/fdg312/diet-planner/internal/config"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewBlobStoreLocalForced(t *testing.T) {
	var buf bytes.Buffer

	store, mode, err := NewBlobStore(t.Context(), appcfg.ExportConfig{
		Mode: appcfg.BlobModeLocal,
	}, newTestLogger(&buf))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal {
		t.Fatalf("expected mode=local, got %s", mode)
	}
	if store != nil {
		t.Fatal("expected nil store in local mode")
	}
	if !strings.Contains(buf.String(), "mode=local (forced)") {
		t.Fatalf("expected local mode log, got: %s", buf.String())
	}
}

func TestNewBlobStoreAutoEmptyS3FallsBackToLocal(t *testing.T) {
	var buf bytes.Buffer

	store, mode, err := NewBlobStore(t.Context(), appcfg.ExportConfig{
		Mode: appcfg.BlobModeAuto,
	}, newTestLogger(&buf))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeLocal {
		t.Fatalf("expected mode=local fallback, got %s", mode)
	}
	if store != nil {
		t.Fatal("expected nil store on auto fallback")
	}

	logOut := buf.String()
	if !strings.Contains(logOut, "code=s3_not_configured") {
		t.Fatalf("expected s3_not_configured diagnostics, got: %s", logOut)
	}
	if !strings.Contains(logOut, "mode=local (auto, S3 not configured)") {
		t.Fatalf("expected auto fallback to local log, got: %s", logOut)
	}
}

func TestNewBlobStoreS3MissingRequiredReturnsError(t *testing.T) {
	var buf bytes.Buffer

	store, mode, err := NewBlobStore(t.Context(), appcfg.ExportConfig{
		Mode: appcfg.BlobModeS3,
		S3: appcfg.S3Config{
			Endpoint: "https://storage.yandexcloud.net",
		},
	}, newTestLogger(&buf))
	if err == nil {
		t.Fatal("expected error when mode=s3 and required env are missing")
	}
	if store != nil || mode != "" {
		t.Fatalf("expected nil store and empty mode on error, got store=%v mode=%q", store, mode)
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Fatalf("expected missing required config error, got: %v", err)
	}
}

func TestNewBlobStoreS3ConfiguredBuildsClient(t *testing.T) {
	store, mode, err := NewBlobStore(t.Context(), appcfg.ExportConfig{
		Mode: appcfg.BlobModeS3,
		S3: appcfg.S3Config{
			Endpoint:        "http://127.0.0.1:9000",
			Region:          "us-east-1",
			Bucket:          "exports",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if mode != appcfg.BlobModeS3 || store == nil {
		t.Fatalf("expected s3 store, got store=%v mode=%q", store, mode)
	}

	url, err := store.PresignGet(t.Context(), "exports/a.pdf", 60)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.Contains(url, "/exports/exports/a.pdf") || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("unexpected presigned url: %s", url)
	}
}

func TestPublicURL(t *testing.T) {
	got, err := PublicURL("https://cdn.example.com/bucket/", "exports/abc.csv")
	if err != nil {
		t.Fatalf("PublicURL: %v", err)
	}
	if got != "https://cdn.example.com/bucket/exports/abc.csv" {
		t.Fatalf("PublicURL = %q", got)
	}

	if _, err := PublicURL("  ", "exports/abc.csv"); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
