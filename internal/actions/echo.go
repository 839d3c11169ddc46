package actions

import (
	"context"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/validation"
)

// EchoData is the payload of the echo action.
type EchoData struct {
	Text string `json:"text"`
}

// Echo returns its text back as {"message": text}.
func Echo() action.Handler {
	return action.Define(action.Spec[EchoData]{
		Name:        "echo",
		Description: "Returns the given text as a message",
		PayloadType: "EchoData",
		Schema: validation.NewSchema[EchoData]().
			Field("text", func(d *EchoData) any { return d.Text }, validation.Required(), validation.MaxLength(10)),
	}, func(_ context.Context, d *EchoData) (any, error) {
		return map[string]any{"message": d.Text}, nil
	})
}
