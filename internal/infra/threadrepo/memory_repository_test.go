package threadrepo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
)

func TestMemoryRepositoryKeepsMessageOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	thread := chat.Thread{ID: uuid.New(), Name: "hello", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateThread(ctx, thread))

	require.NoError(t, repo.AppendMessages(ctx, thread.ID, []chatgpt.Message{
		{Role: chatgpt.RoleUser, Content: "one"},
		{Role: chatgpt.RoleAssistant, Content: "two"},
	}, time.Now()))
	require.NoError(t, repo.AppendMessages(ctx, thread.ID, []chatgpt.Message{
		{Role: chatgpt.RoleUser, Content: "three"},
	}, time.Now()))

	msgs, err := repo.ListMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "one", msgs[0].Message.Content)
	require.Equal(t, "three", msgs[2].Message.Content)

	got, ok, err := repo.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", got.Name)
}

func TestMemoryRepositoryRejectsUnknownThread(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.AppendMessages(context.Background(), uuid.New(), []chatgpt.Message{{Role: chatgpt.RoleUser}}, time.Now())
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
