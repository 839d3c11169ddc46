package testutil

import "time"

// userData holds all data for a user to be inserted.
type userData struct {
	name      string
	email     string
	password  string
	verified  bool
	createdAt time.Time
}

// defaultUser returns a userData with sensible defaults.
func defaultUser(email string) userData {
	return userData{
		name:      "Test User",
		email:     email,
		password:  "password123",
		createdAt: time.Now(),
	}
}

// UserOption configures a user during builder setup.
type UserOption func(*userData)

// Name sets the user's name.
func Name(name string) UserOption {
	return func(u *userData) { u.name = name }
}

// Password sets the plain text password that gets hashed on insert.
func Password(password string) UserOption {
	return func(u *userData) { u.password = password }
}

// Verified marks the user's email as verified at creation time.
func Verified() UserOption {
	return func(u *userData) { u.verified = true }
}

// CreatedAt sets the creation timestamp.
func CreatedAt(t time.Time) UserOption {
	return func(u *userData) { u.createdAt = t }
}

// chatData holds all data for a chat to be inserted.
type chatData struct {
	description string
	model       string
	createdAt   time.Time
}

// ChatOption configures a chat during builder setup.
type ChatOption func(*chatData)

// ChatCreatedAt sets the chat creation timestamp.
func ChatCreatedAt(t time.Time) ChatOption {
	return func(c *chatData) { c.createdAt = t }
}
