package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path   string
	Auth   string
	Body   map[string]any
	Called int
}

func newChatServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Called++
		captured.Path = r.URL.Path
		captured.Auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestOpenAIClient_DescribeImage(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Leaves look healthy."}}]}`)

	client, err := NewClient(context.Background(), config.LLMConfig{
		Provider: "openai",
		Model:    "gpt-4-vision-preview",
		APIKey:   "sk-test",
		BaseURL:  srv.URL + "/",
	})
	require.NoError(t, err)

	out, err := client.DescribeImage(context.Background(), "check the plant", []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Leaves look healthy.", out)

	assert.Equal(t, "/v1/chat/completions", captured.Path)
	assert.Equal(t, "Bearer sk-test", captured.Auth)
	assert.Equal(t, "gpt-4-vision-preview", captured.Body["model"])
	assert.EqualValues(t, 1000, captured.Body["max_tokens"])

	messages := captured.Body["messages"].([]any)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	content := msg["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	assert.Equal(t, "check the plant", content[0].(map[string]any)["text"])
	image := content[1].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, "data:image/jpeg;base64,/9j/", image["image_url"].(map[string]any)["url"])
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Water weekly."}}]}`)

	client := NewOpenAIClient("sk-test", "gpt-4", openAIBaseURL(srv.URL), 1000)
	out, err := client.Generate(context.Background(), "advise")
	require.NoError(t, err)
	assert.Equal(t, "Water weekly.", out)

	content := captured.Body["messages"].([]any)[0].(map[string]any)["content"].([]any)
	assert.Len(t, content, 1)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusOK, `{"choices":[]}`)

	client := NewOpenAIClient("sk-test", "gpt-4", openAIBaseURL(srv.URL), 1000)
	_, err := client.Generate(context.Background(), "advise")
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestOpenAIClient_StatusError(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded","type":"server_error"}}`)

	client := NewOpenAIClient("sk-test", "gpt-4", openAIBaseURL(srv.URL), 1000)
	_, err := client.Generate(context.Background(), "advise")
	require.Error(t, err)
	assert.True(t, IsStatus(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestOpenAIClient_TransportError(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	client := NewOpenAIClient("sk-test", "gpt-4", openAIBaseURL(url), 1000)
	_, err := client.Generate(context.Background(), "advise")
	require.Error(t, err)
	assert.False(t, IsStatus(err))
}

func TestOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1", openAIBaseURL("https://api.openai.com/"))
	assert.Equal(t, "http://localhost:11434/v1", openAIBaseURL("http://localhost:11434/v1"))
	assert.Equal(t, "", openAIBaseURL(""))
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "mystery"})
	assert.Error(t, err)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURL([]byte{1, 2}, "image/png"))
	assert.Equal(t, "data:image/jpeg;base64,AQI=", DataURL([]byte{1, 2}, ""))
}
