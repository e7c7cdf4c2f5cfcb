package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyai/parley/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conversations.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateOrTouchIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := db.CreateOrTouch(ctx, "conv-1", "gpt-x")
	require.NoError(t, err)
	require.Equal(t, store.ModeSimple, first.Mode)

	second, err := db.CreateOrTouch(ctx, "conv-1", "gpt-x")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
}

func TestAppendMessageThenLoadMessagesRoundTrips(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateOrTouch(ctx, "conv-1", "gpt-x")
	require.NoError(t, err)

	appended, err := db.AppendMessage(ctx, "conv-1", store.NewMessage{
		Role:    store.RoleUser,
		Content: "What is 2+2?",
	})
	require.NoError(t, err)

	messages, err := db.LoadMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, appended.Seq, messages[0].Seq)
	require.Equal(t, "What is 2+2?", messages[0].Content)
	require.Equal(t, store.RoleUser, messages[0].Role)

	conv, err := db.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	require.Equal(t, 1, conv.MessageCount)
	require.Equal(t, "What is 2+2?", conv.Title)
	require.GreaterOrEqual(t, conv.UpdatedAt.Unix(), conv.CreatedAt.Unix())
}

func TestMessageCountMatchesLoadedMessages(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateOrTouch(ctx, "conv-1", "gpt-x")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := db.AppendMessage(ctx, "conv-1", store.NewMessage{Role: store.RoleUser, Content: "hi"})
		require.NoError(t, err)
	}

	conv, err := db.GetConversation(ctx, "conv-1")
	require.NoError(t, err)

	messages, err := db.LoadMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, conv.MessageCount)
}

func TestDebateStateRoundTrips(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateOrTouch(ctx, "conv-1", "gpt-x")
	require.NoError(t, err)

	require.NoError(t, db.WriteDebateState(ctx, "conv-1", `{"max_iterations":3}`))

	got, err := db.ReadDebateState(ctx, "conv-1")
	require.NoError(t, err)
	require.Equal(t, `{"max_iterations":3}`, got)
}

func TestDeleteCascadesToMessages(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateOrTouch(ctx, "conv-1", "gpt-x")
	require.NoError(t, err)
	_, err = db.AppendMessage(ctx, "conv-1", store.NewMessage{Role: store.RoleUser, Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, db.Delete(ctx, "conv-1"))

	_, err = db.GetConversation(ctx, "conv-1")
	require.Error(t, err)

	messages, err := db.LoadMessages(ctx, "conv-1")
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestListConversationsOrderedByUpdatedAtDesc(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateOrTouch(ctx, "conv-a", "gpt-x")
	require.NoError(t, err)
	_, err = db.CreateOrTouch(ctx, "conv-b", "gpt-x")
	require.NoError(t, err)
	// Touch conv-a again so it sorts first.
	_, err = db.AppendMessage(ctx, "conv-a", store.NewMessage{Role: store.RoleUser, Content: "hi"})
	require.NoError(t, err)

	list, err := db.ListConversations(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "conv-a", list[0].ID)
}
