package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/eventlog"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSaveAndLatestForSession(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first := &eventlog.Entry{
		EventID:    "evt_1",
		EventType:  "checkout.session.completed",
		SessionID:  "cs_1",
		Status:     eventlog.StatusFailed,
		Error:      "mongo unavailable",
		ReceivedAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, repo.Save(ctx, first))

	second := &eventlog.Entry{
		EventID:    "evt_1",
		EventType:  "checkout.session.completed",
		SessionID:  "cs_1",
		Status:     eventlog.StatusRecorded,
		ReceivedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, second))

	latest, err := repo.LatestForSession(ctx, "cs_1")
	require.NoError(t, err)

	assert.Equal(t, eventlog.StatusRecorded, latest.Status)
	assert.Empty(t, latest.Error)
	assert.Equal(t, "evt_1", latest.EventID)
	assert.WithinDuration(t, second.ReceivedAt, latest.ReceivedAt, time.Second)
}

func TestLatestForSession_Unknown(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.LatestForSession(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cs_missing")
}

func TestSave_IgnoredEventWithoutSession(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entry := eventlog.NewEntry(ctx, "evt_2", "charge.refunded", "", eventlog.StatusIgnored, "")
	require.NoError(t, repo.Save(ctx, entry))

	// No session id, so the session lookup finds nothing.
	_, err := repo.LatestForSession(ctx, "cs_anything")
	require.Error(t, err)
}
