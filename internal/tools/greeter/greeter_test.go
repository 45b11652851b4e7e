package greeter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hello-mcp-go/internal/greeting"
	"hello-mcp-go/internal/tools"
)

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, Register(r, greeting.NewService(greeting.DefaultConfig())))
	return r
}

func call(t *testing.T, r *tools.Registry, name, args string) any {
	t.Helper()
	out, err := r.Call(context.Background(), name, json.RawMessage(args))
	require.NoError(t, err)
	return out
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)

	var names []string
	for _, def := range r.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"custom_greeting", "hello", "list_languages"}, names)
}

func TestHelloTool(t *testing.T) {
	r := newRegistry(t)

	out := call(t, r, "hello", `{}`)
	assert.Equal(t, greeting.GreetingResponse{Greeting: "Hello, World!", Language: "en", Name: "World"}, out)

	out = call(t, r, "hello", `{"name":"Bob","language":"es"}`)
	assert.Equal(t, "Hola, Bob!", out.(greeting.GreetingResponse).Greeting)

	out = call(t, r, "hello", `{"name":null,"language":null,"uppercase":true}`)
	assert.Equal(t, "HELLO, WORLD!", out.(greeting.GreetingResponse).Greeting)
}

func TestHelloTool_RejectsBadArguments(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Call(context.Background(), "hello", json.RawMessage(`{"uppercase":"yes"}`))

	var toolErr *tools.Error
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, tools.ErrInvalidArguments, toolErr.Code)
}

func TestListLanguagesTool(t *testing.T) {
	r := newRegistry(t)

	out := call(t, r, "list_languages", `{}`).(greeting.LanguagesResponse)
	assert.Equal(t, 9, out.Count)
	assert.Equal(t, "Bonjour", out.Languages["fr"])
}

func TestCustomGreetingTool(t *testing.T) {
	r := newRegistry(t)

	out := call(t, r, "custom_greeting", `{"template":"Hi {name}, age {age}","name":"Sam","variables":{"age":"5"}}`)
	resp := out.(greeting.TemplateResponse)
	assert.False(t, resp.Failed())
	assert.Equal(t, "Hi Sam, age 5", resp.Greeting)

	out = call(t, r, "custom_greeting", `{"template":"Hi {missing}"}`)
	failer, ok := out.(tools.Failer)
	require.True(t, ok)
	assert.True(t, failer.Failed())
}

func TestCustomGreetingTool_RequiresTemplate(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Call(context.Background(), "custom_greeting", json.RawMessage(`{"name":"Sam"}`))

	var toolErr *tools.Error
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, tools.ErrInvalidArguments, toolErr.Code)
}
