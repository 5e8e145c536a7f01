package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type chatRepoPG struct{ pool *pgxpool.Pool }

func NewChatRepoPG(pool *pgxpool.Pool) ChatRepository {
	return &chatRepoPG{pool: pool}
}

const conversationCols = `id, user_id, title, created_at, updated_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *chatRepoPG) CreateConversation(ctx context.Context, c *Conversation) error {
	c.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_conversations (id, user_id, title) VALUES ($1,$2,$3)`,
		c.ID, c.UserID, c.Title)
	return err
}

func (r *chatRepoPG) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return scanConversation(r.pool.QueryRow(ctx,
		`SELECT `+conversationCols+` FROM chat_conversations WHERE id = $1`, id))
}

func (r *chatRepoPG) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_conversations WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+conversationCols+` FROM chat_conversations
		WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

func (r *chatRepoPG) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chat_conversations WHERE id = $1`, id)
	return err
}

func (r *chatRepoPG) CreateMessage(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, conversation_id, role, content)
		VALUES ($1,$2,$3,$4)`,
		m.ID, m.ConversationID, m.Role, m.Content); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_conversations SET updated_at = NOW() WHERE id = $1`, m.ConversationID)
	return err
}

func (r *chatRepoPG) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM chat_messages WHERE conversation_id = $1 ORDER BY created_at`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, nil
}
