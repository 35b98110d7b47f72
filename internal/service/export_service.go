package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
	"github.com/tikrar-dev/tikrar-api/pkg/export"
	"github.com/tikrar-dev/tikrar-api/pkg/storage"
)

type rosterSource interface {
	Roster(ctx context.Context, batchID string) (export.Table, error)
}

type exportStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportServiceConfig tunes roster export rendering and retention.
type ExportServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// RosterExport is a rendered roster plus the signed re-download metadata.
type RosterExport struct {
	Filename    string
	Payload     []byte
	MimeType    string
	DownloadURL string
	ExpiresAt   time.Time
}

// RosterDownload wraps an archived export resolved from a signed token.
type RosterDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// ExportService renders the pairing roster, archives the file on disk and
// issues signed tokens so admins can re-download without re-rendering.
type ExportService struct {
	pairings rosterSource
	store    exportStore
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportServiceConfig
	now      func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(pairings rosterSource, store exportStore, signer *storage.SignedURLSigner, cfg ExportServiceConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &ExportService{
		pairings: pairings,
		store:    store,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate renders the batch roster in the requested format, stores a copy
// and returns the payload with a signed download URL.
func (s *ExportService) Generate(ctx context.Context, batchID, format string) (*RosterExport, error) {
	table, err := s.pairings.Roster(ctx, batchID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case "csv":
		payload, err = export.CSV(table)
	case "pdf":
		payload, err = export.PDF(table, "Pairing Roster")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	filename := fmt.Sprintf("roster/%s/pairing-roster-%s.%s", batchID, s.now().UTC().Format("20060102-150405"), format)
	relPath, err := s.store.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive roster export")
	}

	token, expiresAt, err := s.signer.Generate(batchID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	downloadURL := fmt.Sprintf("%s/admin/pairing/roster/download?token=%s", base, token)

	return &RosterExport{
		Filename:    filepath.Base(relPath),
		Payload:     payload,
		MimeType:    mimeForFormat(format),
		DownloadURL: downloadURL,
		ExpiresAt:   expiresAt,
	}, nil
}

// Download resolves a signed token to the archived export file.
func (s *ExportService) Download(ctx context.Context, token string) (*RosterDownload, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export metadata")
	}
	return &RosterDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		MimeType:  mimeForFormat(strings.TrimPrefix(filepath.Ext(relPath), ".")),
		SizeBytes: info.Size(),
	}, nil
}

// StartCleanup periodically removes archived exports older than the result
// TTL. It returns once ctx is cancelled.
func (s *ExportService) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(s.cfg.ResultTTL)
			if err != nil {
				s.logger.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				s.logger.Sugar().Infow("expired exports removed", "count", len(deleted))
			}
		}
	}
}

func mimeForFormat(format string) string {
	if format == "pdf" {
		return "application/pdf"
	}
	return "text/csv"
}
