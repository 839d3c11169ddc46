package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/domain/account"
	"github.com/malikkrehic/action/internal/validation"
)

// ChatModels lists the models a chat may be bound to.
var ChatModels = []string{"gpt-4", "gpt-3.5-turbo", "claude-3-sonnet", "claude-3-haiku"}

// CreateChatData is the payload of the create-chat action.
type CreateChatData struct {
	Description string `json:"description"`
	Model       string `json:"model"`
}

// CreateChat stores a new chat named "New Chat".
func CreateChat(chats account.ChatRepository, now func() time.Time) action.Handler {
	return action.Define(action.Spec[CreateChatData]{
		Name:        "create-chat",
		Description: "Start a new chat with the chosen model",
		PayloadType: "CreateChatData",
		Schema: validation.NewSchema[CreateChatData]().
			Field("description", func(d *CreateChatData) any { return d.Description }, validation.Required(), validation.MaxLength(500)).
			Field("model", func(d *CreateChatData) any { return d.Model }, validation.Required(), validation.In(ChatModels...)),
	}, func(ctx context.Context, d *CreateChatData) (any, error) {
		c := &account.Chat{
			ID:          uuid.NewString(),
			Name:        account.DefaultChatName,
			Description: d.Description,
			Model:       d.Model,
			CreatedAt:   now(),
		}
		if err := chats.CreateChat(ctx, c); err != nil {
			return nil, fmt.Errorf("create chat: %w", err)
		}
		return c, nil
	})
}
