package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fdg312/diet-planner/internal/blob"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/google/uuid"
)

type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

var ErrInvalidFormat = errors.New("invalid export format")

// ParseFormat accepts pdf or csv, case-insensitive. Empty means pdf.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", ErrInvalidFormat
	}
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/pdf"
}

// Source provides the snapshot to export.
type Source interface {
	Snapshot() planner.View
}

// Result is a rendered export. Data is set in local mode; ObjectKey and URL
// are set when the file was uploaded.
type Result struct {
	Format      Format `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	ObjectKey   string `json:"object_key,omitempty"`
	URL         string `json:"url,omitempty"`
	Data        []byte `json:"-"`
}

// Options configures the upload side of a Service.
type Options struct {
	PresignTTLSeconds int
	PublicBaseURL     string
	PreferPublicURL   bool
	Logger            *slog.Logger
}

// Service renders exports and, with a blob store, uploads them.
type Service struct {
	source Source
	store  blob.Store
	opts   Options
	logger *slog.Logger
}

// NewService creates an export service. A nil store keeps exports local.
func NewService(source Source, store blob.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PresignTTLSeconds <= 0 {
		opts.PresignTTLSeconds = 900
	}
	return &Service{
		source: source,
		store:  store,
		opts:   opts,
		logger: logger.With("component", "export"),
	}
}

// Render renders the current snapshot without uploading it.
func (s *Service) Render(format Format) (*Result, error) {
	doc := BuildDocument(s.source.Snapshot())

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatPDF:
		data, err = RenderPDF(doc)
	case FormatCSV:
		data, err = RenderCSV(doc)
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	return &Result{
		Format:      format,
		Filename:    "meal-plan." + string(format),
		ContentType: format.ContentType(),
		SizeBytes:   int64(len(data)),
		Data:        data,
	}, nil
}

// Export renders the current snapshot and uploads it when a store is set.
func (s *Service) Export(ctx context.Context, format Format) (*Result, error) {
	res, err := s.Render(format)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return res, nil
	}

	objectKey := fmt.Sprintf("exports/%s.%s", uuid.New().String(), format)
	if _, err := s.store.PutObject(ctx, objectKey, res.Data, res.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}
	res.ObjectKey = objectKey

	url, err := s.downloadURL(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	res.URL = url
	res.Data = nil

	s.logger.Info("export uploaded", "format", format, "key", objectKey, "size_bytes", res.SizeBytes)
	return res, nil
}

func (s *Service) downloadURL(ctx context.Context, objectKey string) (string, error) {
	if s.opts.PreferPublicURL && s.opts.PublicBaseURL != "" {
		return blob.PublicURL(s.opts.PublicBaseURL, objectKey)
	}
	url, err := s.store.PresignGet(ctx, objectKey, s.opts.PresignTTLSeconds)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}
