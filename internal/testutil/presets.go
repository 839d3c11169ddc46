package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/actions"
	"github.com/malikkrehic/action/internal/infrastructure/sqlite"
)

// WithStandardTestData adds the standard test dataset: one verified user,
// one unverified user and a chat.
func (b *Builder) WithStandardTestData() *Builder {
	lastWeek := time.Now().Add(-7 * 24 * time.Hour)

	return b.
		WithUser("alice@example.com", Name("Alice"), Verified(), CreatedAt(lastWeek)).
		WithUser("bob@example.com", Name("Bob")).
		WithChat("Pair on the release notes", "gpt-4")
}

// NewManager builds a Manager with every built-in action registered against
// db. A nil db registers only the actions that need no storage.
func NewManager(t *testing.T, db *sqlite.DB, opts ...action.Option) *action.Manager {
	t.Helper()

	deps := actions.Deps{}
	if db != nil {
		deps.Users = db.Users()
		deps.Chats = db.Chats()
	}

	reg := action.NewRegistry()
	require.NoError(t, actions.RegisterAll(reg, deps))
	return action.NewManager(reg, opts...)
}
