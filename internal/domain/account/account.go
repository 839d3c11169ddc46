// Package account holds the user and chat entities created by the example
// actions, and the repository ports they are persisted through.
//
// Like the rest of the domain layer it has no infrastructure dependencies;
// SQLite implementations live in internal/infrastructure/sqlite.
package account

import (
	"context"
	"errors"
	"time"
)

// ErrEmailTaken is returned by UserRepository.CreateUser when the email is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

// DefaultChatName is the name given to newly created chats.
const DefaultChatName = "New Chat"

// User is a registered account.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Verified reports whether the user's email has been verified.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}

// Chat is a conversation bound to a model.
type Chat struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRepository persists users.
type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *User) error
}

// ChatRepository persists chats.
type ChatRepository interface {
	CreateChat(ctx context.Context, c *Chat) error
}
