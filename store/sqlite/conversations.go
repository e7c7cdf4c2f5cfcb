package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/store"
)

func (d *DB) CreateOrTouch(ctx context.Context, conversationID, model string) (*store.Conversation, error) {
	existing, err := d.GetConversation(ctx, conversationID)
	if err == nil {
		touched := time.Now().UTC()
		if _, err := d.db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`,
			touched.Unix(), conversationID); err != nil {
			return nil, apperrors.Storage(err, "touch conversation")
		}
		existing.UpdatedAt = time.Unix(touched.Unix(), 0).UTC()
		return existing, nil
	}
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	_, execErr := d.db.ExecContext(ctx, `
		INSERT INTO conversations (id, model, mode, created_at, updated_at, message_count, title, metadata_json)
		VALUES (?, ?, ?, ?, ?, 0, '', '')`,
		conversationID, model, store.ModeSimple, now.Unix(), now.Unix(),
	)
	if execErr != nil {
		return nil, apperrors.Storage(execErr, "create conversation")
	}

	return &store.Conversation{
		ID:        conversationID,
		Model:     model,
		Mode:      store.ModeSimple,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (d *DB) GetConversation(ctx context.Context, conversationID string) (*store.Conversation, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, model, mode, created_at, updated_at, message_count, title, metadata_json
		FROM conversations WHERE id = ?`, conversationID)

	c := &store.Conversation{}
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.Model, &c.Mode, &createdAt, &updatedAt, &c.MessageCount, &c.Title, &c.MetadataJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(fmt.Sprintf("conversation %q not found", conversationID))
	}
	if err != nil {
		return nil, apperrors.Storage(err, "get conversation")
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return c, nil
}

func (d *DB) ListConversations(ctx context.Context, limit, offset int) ([]*store.ConversationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, mode, message_count, updated_at
		FROM conversations ORDER BY updated_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err, "list conversations")
	}
	defer rows.Close()

	list := make([]*store.ConversationSummary, 0)
	for rows.Next() {
		s := &store.ConversationSummary{}
		var updatedAt int64
		if err := rows.Scan(&s.ID, &s.Title, &s.Mode, &s.MessageCount, &updatedAt); err != nil {
			return nil, apperrors.Storage(err, "scan conversation summary")
		}
		s.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "iterate conversation summaries")
	}
	return list, nil
}

func (d *DB) UpdateMode(ctx context.Context, conversationID string, mode store.Mode) error {
	res, err := d.db.ExecContext(ctx, `UPDATE conversations SET mode = ?, updated_at = ? WHERE id = ?`,
		mode, time.Now().UTC().Unix(), conversationID)
	if err != nil {
		return apperrors.Storage(err, "update mode")
	}
	return requireRowAffected(res, conversationID)
}

func (d *DB) ReadDebateState(ctx context.Context, conversationID string) (string, error) {
	c, err := d.GetConversation(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return c.MetadataJSON, nil
}

func (d *DB) WriteDebateState(ctx context.Context, conversationID string, debateStateJSON string) error {
	res, err := d.db.ExecContext(ctx, `UPDATE conversations SET metadata_json = ?, updated_at = ? WHERE id = ?`,
		debateStateJSON, time.Now().UTC().Unix(), conversationID)
	if err != nil {
		return apperrors.Storage(err, "write debate state")
	}
	return requireRowAffected(res, conversationID)
}

func (d *DB) Delete(ctx context.Context, conversationID string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, conversationID)
	if err != nil {
		return apperrors.Storage(err, "delete conversation")
	}
	return requireRowAffected(res, conversationID)
}

func (d *DB) DeleteAll(ctx context.Context) (int, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM conversations`)
	if err != nil {
		return 0, apperrors.Storage(err, "delete all conversations")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.Storage(err, "count deleted conversations")
	}
	return int(n), nil
}

func requireRowAffected(res sql.Result, conversationID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage(err, "check rows affected")
	}
	if n == 0 {
		return apperrors.NotFound(fmt.Sprintf("conversation %q not found", conversationID))
	}
	return nil
}
