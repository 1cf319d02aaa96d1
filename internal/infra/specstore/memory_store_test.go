package specstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/payload"
)

func sampleSpec(t *testing.T, createdAt int64) dashboard.Specification {
	t.Helper()
	res := dashboard.Compose(`{"status":"ok","amount":3}`, dashboard.ComposeOptions{})
	require.True(t, res.Success)
	spec := *res.Specification
	spec.SampleData = res.SourceData
	spec.CreatedAt = createdAt
	return spec
}

func TestMemoryStoreSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	spec := sampleSpec(t, 100)
	require.NoError(t, store.Save(ctx, "client-1", spec))

	got, ok, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, spec.TemplateID, got.TemplateID)
	require.Equal(t, []string{"status", "amount"}, got.SampleData.Keys())
	require.Equal(t, int64(100), got.CreatedAt)

	require.NoError(t, store.Delete(ctx, "client-1"))
	_, ok, err = store.Get(ctx, "client-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreOverwriteAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)

	require.NoError(t, store.Save(ctx, "a", sampleSpec(t, 1)))
	require.NoError(t, store.Save(ctx, "b", sampleSpec(t, 2)))
	newer := sampleSpec(t, 3)
	newer.TemplateName = "Replaced"
	require.NoError(t, store.Save(ctx, "a", newer))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].ID)
	require.Equal(t, "Replaced", list[0].Specification.TemplateName)
	require.Equal(t, "b", list[1].ID)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, 20*time.Millisecond)
	require.NoError(t, store.Save(ctx, "short", sampleSpec(t, 1)))

	require.Eventually(t, func() bool {
		_, ok, err := store.Get(ctx, "short")
		return err == nil && !ok
	}, time.Second, 10*time.Millisecond)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Hour)
	spec := sampleSpec(t, 1)
	require.NoError(t, store.Save(ctx, "x", spec))

	spec.FieldMappings["status"] = "mutated"
	sample := payload.Object(payload.Member{Key: "other", Value: payload.Null()})
	spec.SampleData = &sample

	got, _, err := store.Get(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, "status", got.FieldMappings["status"])
	require.True(t, got.SampleData.Has("status"))
}
