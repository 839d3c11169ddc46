package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/malikkrehic/action/internal/domain/account"
	"github.com/malikkrehic/action/internal/infrastructure/sqlite"
)

// Builder accumulates test data and inserts it through the repositories.
type Builder struct {
	t     *testing.T
	db    *sqlite.DB
	users []userData
	chats []chatData
}

// NewBuilder creates a builder for the given test database.
func NewBuilder(t *testing.T, db *sqlite.DB) *Builder {
	t.Helper()
	return &Builder{t: t, db: db}
}

// WithUser adds a user with optional configuration.
func (b *Builder) WithUser(email string, opts ...UserOption) *Builder {
	user := defaultUser(email)
	for _, opt := range opts {
		opt(&user)
	}
	b.users = append(b.users, user)
	return b
}

// WithChat adds a chat.
func (b *Builder) WithChat(description, model string, opts ...ChatOption) *Builder {
	chat := chatData{description: description, model: model}
	for _, opt := range opts {
		opt(&chat)
	}
	b.chats = append(b.chats, chat)
	return b
}

// Build inserts all accumulated data into the database and returns the
// created users in insertion order.
func (b *Builder) Build() []*account.User {
	b.t.Helper()
	ctx := context.Background()

	users := make([]*account.User, 0, len(b.users))
	for _, u := range b.users {
		users = append(users, b.insertUser(ctx, u))
	}
	for _, c := range b.chats {
		b.insertChat(ctx, c)
	}
	return users
}

func (b *Builder) insertUser(ctx context.Context, data userData) *account.User {
	b.t.Helper()

	// MinCost keeps fixture setup fast
	hash, err := bcrypt.GenerateFromPassword([]byte(data.password), bcrypt.MinCost)
	require.NoError(b.t, err)

	u := &account.User{
		ID:           uuid.NewString(),
		Name:         data.name,
		Email:        data.email,
		PasswordHash: string(hash),
		CreatedAt:    data.createdAt,
	}
	if data.verified {
		at := data.createdAt
		u.EmailVerifiedAt = &at
	}
	require.NoError(b.t, b.db.Users().CreateUser(ctx, u))
	return u
}

func (b *Builder) insertChat(ctx context.Context, data chatData) {
	b.t.Helper()

	createdAt := data.createdAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	require.NoError(b.t, b.db.Chats().CreateChat(ctx, &account.Chat{
		ID:          uuid.NewString(),
		Name:        account.DefaultChatName,
		Description: data.description,
		Model:       data.model,
		CreatedAt:   createdAt,
	}))
}
