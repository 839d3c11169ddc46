// Package actions contains the actions shipped with the service.
package actions

import (
	"time"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/domain/account"
)

// Deps are the collaborators the built-in actions need.
type Deps struct {
	Users account.UserRepository
	Chats account.ChatRepository
	// Now defaults to time.Now.
	Now func() time.Time
}

// RegisterAll registers every built-in action on reg. Actions whose
// repository is missing in deps are skipped.
func RegisterAll(reg *action.Registry, deps Deps) error {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	handlers := []action.Handler{Echo()}
	if deps.Users != nil {
		handlers = append(handlers, CreateUser(deps.Users, now))
	}
	if deps.Chats != nil {
		handlers = append(handlers, CreateChat(deps.Chats, now))
	}

	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}
