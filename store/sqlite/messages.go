package sqlite

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"

	"github.com/parleyai/parley/internal/apperrors"
	"github.com/parleyai/parley/store"
)

// titleMaxRunes bounds the derived conversation title to a UI-friendly
// length; it is truncated on runes, not bytes, to stay UTF-8 safe.
const titleMaxRunes = 80

func (d *DB) AppendMessage(ctx context.Context, conversationID string, msg store.NewMessage) (*store.Message, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Storage(err, "begin append-message transaction")
	}
	defer tx.Rollback()

	var existingTitle string
	row := tx.QueryRowContext(ctx, `SELECT title FROM conversations WHERE id = ?`, conversationID)
	if err := row.Scan(&existingTitle); err == sql.ErrNoRows {
		return nil, apperrors.NotFound("conversation not found")
	} else if err != nil {
		return nil, apperrors.Storage(err, "load conversation title")
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, timestamp, model, message_type, iteration, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		conversationID, msg.Role, msg.Content, now.Unix(), msg.Model, msg.MessageType, msg.Iteration, msg.MetadataJSON,
	)
	if err != nil {
		return nil, apperrors.Storage(err, "insert message")
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, apperrors.Storage(err, "read inserted message id")
	}

	newTitle := existingTitle
	if newTitle == "" && msg.Role == store.RoleUser {
		newTitle = deriveTitle(msg.Content)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET message_count = message_count + 1, updated_at = ?, title = ?
		WHERE id = ?`,
		now.Unix(), newTitle, conversationID,
	); err != nil {
		return nil, apperrors.Storage(err, "touch conversation after append")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Storage(err, "commit append-message transaction")
	}

	return &store.Message{
		Seq:            seq,
		ConversationID: conversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		Timestamp:      now,
		Model:          msg.Model,
		MessageType:    msg.MessageType,
		Iteration:      msg.Iteration,
		MetadataJSON:   msg.MetadataJSON,
	}, nil
}

func (d *DB) LoadMessages(ctx context.Context, conversationID string) ([]*store.Message, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT seq, conversation_id, role, content, timestamp, model, message_type, iteration, metadata_json
		FROM messages WHERE conversation_id = ? ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, apperrors.Storage(err, "load messages")
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		var ts int64
		if err := rows.Scan(&m.Seq, &m.ConversationID, &m.Role, &m.Content, &ts, &m.Model, &m.MessageType, &m.Iteration, &m.MetadataJSON); err != nil {
			return nil, apperrors.Storage(err, "scan message")
		}
		m.Timestamp = time.Unix(ts, 0).UTC()
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "iterate messages")
	}
	return list, nil
}

// deriveTitle takes the first line of content, truncated to
// titleMaxRunes, as the conversation's derived title.
func deriveTitle(content string) string {
	for i, r := range content {
		if r == '\n' {
			content = content[:i]
			break
		}
	}
	if utf8.RuneCountInString(content) <= titleMaxRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleMaxRunes]) + "…"
}
