package eventrepo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/domain/payload"
	"github.com/yanqian/flowdash/internal/domain/preview"
)

func TestMemoryRepositoryRecentAndStats(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 7; i++ {
		event := preview.WebhookEvent{
			ID:         uuid.New(),
			ClientID:   "c1",
			Payload:    payload.Object(payload.Member{Key: "n", Value: payload.String("x")}),
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
		}
		ids = append(ids, event.ID)
		require.NoError(t, repo.Append(ctx, event))
	}
	require.NoError(t, repo.Append(ctx, preview.WebhookEvent{ID: uuid.New(), ClientID: "c2", ReceivedAt: base}))

	recent, err := repo.ListRecent(ctx, "c1", 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	require.Equal(t, ids[6], recent[0].ID)
	require.Equal(t, ids[2], recent[4].ID)

	stats, err := repo.Stats(ctx, "c1")
	require.NoError(t, err)
	require.EqualValues(t, 7, stats.Count)
	require.NotNil(t, stats.LastReceivedAt)
	require.Equal(t, base.Add(6*time.Minute), *stats.LastReceivedAt)

	empty, err := repo.Stats(ctx, "nobody")
	require.NoError(t, err)
	require.Zero(t, empty.Count)
	require.Nil(t, empty.LastReceivedAt)

	got, ok, err := repo.Get(ctx, ids[0])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c1", got.ClientID)
}
