package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/textgrab/internal/config"
	"github.com/spherical/textgrab/internal/domain"
)

func openTestRepo(t *testing.T) *HistoryRepository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "history.db")
	repo, err := Open(context.Background(), config.HistoryConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func record(id string, started time.Time) domain.SessionRecord {
	return domain.SessionRecord{
		ID:         id,
		Kind:       domain.PayloadDocument,
		MediaType:  domain.MediaTypePDF,
		Name:       id + ".pdf",
		Digest:     "d-" + id,
		Language:   "eng",
		PageCount:  2,
		Status:     domain.SessionCompleted,
		TextLength: 12,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestHistory_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, record("a", base)))
	require.NoError(t, repo.Record(ctx, record("b", base.Add(time.Minute))))
	require.NoError(t, repo.Record(ctx, record("c", base.Add(2*time.Minute))))

	got, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, domain.PayloadDocument, got[0].Kind)
	assert.Equal(t, domain.SessionCompleted, got[0].Status)
	assert.True(t, got[0].StartedAt.Equal(base.Add(2*time.Minute)))
}

func TestHistory_RecordUpserts(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	rec := record("a", time.Now())

	rec.Status = domain.SessionRunning
	require.NoError(t, repo.Record(ctx, rec))
	rec.Status = domain.SessionFailed
	rec.Error = "boom"
	require.NoError(t, repo.Record(ctx, rec))

	got, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SessionFailed, got[0].Status)
	assert.Equal(t, "boom", got[0].Error)
}

func TestHistory_RejectsMissingID(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.Record(context.Background(), domain.SessionRecord{})
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestOpen_None(t *testing.T) {
	repo, err := Open(context.Background(), config.HistoryConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, repo)
}

func TestRebind(t *testing.T) {
	pg := NewHistoryRepository(nil, DialectPostgres)
	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))

	lite := NewHistoryRepository(nil, DialectSQLite)
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}
