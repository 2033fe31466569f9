package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLedgerRepo(t *testing.T) (*webhookLedgerRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWebhookLedgerRepository(db, zap.NewNop()), mock
}

func TestLedgerRecord(t *testing.T) {
	t.Run("first delivery is new", func(t *testing.T) {
		repo, mock := newLedgerRepo(t)
		mock.ExpectExec("INSERT INTO webhook_ids").
			WithArgs("wh-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		isNew, err := repo.Record(context.Background(), "wh-1")

		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("replay hits the conflict and is not new", func(t *testing.T) {
		repo, mock := newLedgerRepo(t)
		mock.ExpectExec("INSERT INTO webhook_ids").
			WithArgs("wh-1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		isNew, err := repo.Record(context.Background(), "wh-1")

		require.NoError(t, err)
		assert.False(t, isNew)
	})
}

func TestLedgerIsDuplicate(t *testing.T) {
	t.Run("known id", func(t *testing.T) {
		repo, mock := newLedgerRepo(t)
		mock.ExpectQuery("SELECT 1 FROM webhook_ids").
			WithArgs("wh-1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		dup, err := repo.IsDuplicate(context.Background(), "wh-1")

		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo, mock := newLedgerRepo(t)
		mock.ExpectQuery("SELECT 1 FROM webhook_ids").
			WithArgs("wh-2").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		dup, err := repo.IsDuplicate(context.Background(), "wh-2")

		require.NoError(t, err)
		assert.False(t, dup)
	})
}

func TestLedgerForget(t *testing.T) {
	repo, mock := newLedgerRepo(t)
	mock.ExpectExec("DELETE FROM webhook_ids WHERE webhook_id").
		WithArgs("wh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Forget(context.Background(), "wh-1"))
}

func TestLedgerPurgeOlderThan(t *testing.T) {
	repo, mock := newLedgerRepo(t)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	mock.ExpectExec("DELETE FROM webhook_ids").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	purged, err := repo.PurgeOlderThan(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(42), purged)
}
