package presentation

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/validation"
)

type greetPayload struct {
	Name string `json:"name"`
}

func testRegistry(t *testing.T) *action.Registry {
	t.Helper()
	reg := action.NewRegistry()
	reg.MustRegister(
		action.Define(action.Spec[greetPayload]{
			Name:        "greet",
			Description: "Says hello",
			PayloadType: "GreetData",
			Schema: validation.NewSchema[greetPayload]().
				Field("name", func(p *greetPayload) any { return p.Name }, validation.Required()),
		}, func(_ context.Context, p *greetPayload) (any, error) {
			return "hello " + p.Name, nil
		}),
		action.Define(action.Spec[greetPayload]{Name: "noop", PayloadType: "NoopData"}, nil),
	)
	return reg
}

func TestFromRegistry(t *testing.T) {
	list := FromRegistry(testRegistry(t))

	require.Equal(t, 2, list.Count)
	assert.Equal(t, ActionDTO{
		Name:        "greet",
		Description: "Says hello",
		DataType:    "GreetData",
		Fields:      []string{"name"},
	}, list.Actions["greet"])
	assert.Equal(t, action.DefaultDescription, list.Actions["noop"].Description)
	assert.Empty(t, list.Actions["noop"].Fields)
}

func TestFormatter_FormatActions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatActions(FromRegistry(testRegistry(t))))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 2, decoded["count"])

	greet := decoded["actions"].(map[string]any)["greet"].(map[string]any)
	assert.Equal(t, "GreetData", greet["data_type"])
	assert.Equal(t, "Says hello", greet["description"])
}

func TestFormatter_FormatActionsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatActionsTable(FromRegistry(testRegistry(t))))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "GreetData")
	assert.Contains(t, out, "2 action(s)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("greet")), bytes.Index(buf.Bytes(), []byte("noop")))
}

func TestFormatter_FormatResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatResult(map[string]any{"message": "hi"}))
	assert.JSONEq(t, `{"message":"hi"}`, buf.String())
}
