package service

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/tikrar-dev/tikrar-api/pkg/errors"
	"github.com/tikrar-dev/tikrar-api/pkg/export"
	"github.com/tikrar-dev/tikrar-api/pkg/storage"
)

type rosterSourceStub struct {
	table export.Table
	err   error
}

func (s *rosterSourceStub) Roster(ctx context.Context, batchID string) (export.Table, error) {
	return s.table, s.err
}

func newExportService(t *testing.T) (*ExportService, *rosterSourceStub) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	source := &rosterSourceStub{table: export.Table{
		Headers: []string{"Pairing ID", "Student 1", "Student 2 / Companion", "Source", "Created At"},
		Rows:    [][]string{{"pair-1", "Aisyah", "Fatimah", "self_match", "2026-03-01T10:00:00Z"}},
	}}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(source, store, signer, ExportServiceConfig{APIPrefix: "/api/v1"}, zap.NewNop())
	return svc, source
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, _ := newExportService(t)

	result, err := svc.Generate(context.Background(), "batch-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.MimeType)
	assert.Contains(t, string(result.Payload), "Aisyah")
	assert.Contains(t, result.DownloadURL, "/api/v1/admin/pairing/roster/download?token=")
	assert.True(t, result.ExpiresAt.After(time.Now()))
}

func TestExportServiceGenerateBadFormat(t *testing.T) {
	svc, _ := newExportService(t)

	_, err := svc.Generate(context.Background(), "batch-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadRoundTrip(t *testing.T) {
	svc, _ := newExportService(t)

	generated, err := svc.Generate(context.Background(), "batch-1", "csv")
	require.NoError(t, err)

	parsed, err := url.Parse(generated.DownloadURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	download, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, generated.Payload, content)
	assert.Equal(t, "text/csv", download.MimeType)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))
}

func TestExportServiceDownloadInvalidToken(t *testing.T) {
	svc, _ := newExportService(t)

	_, err := svc.Download(context.Background(), "not.a.valid.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadMissingFile(t *testing.T) {
	svc, _ := newExportService(t)

	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	token, _, err := signer.Generate("batch-1", "roster/batch-1/gone.csv")
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
