package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/malikkrehic/action/internal/domain/account"
)

type chatRepository struct {
	db *sql.DB
}

var _ account.ChatRepository = (*chatRepository)(nil)

// CreateChat inserts c.
func (r *chatRepository) CreateChat(ctx context.Context, c *account.Chat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chats (id, name, description, model, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Model, toMillis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// Count returns the number of stored chats.
func (r *chatRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM chats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chats: %w", err)
	}
	return n, nil
}
