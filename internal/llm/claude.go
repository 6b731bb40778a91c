package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewClaudeClient(apiKey string, model string, baseURL string, maxTokens int) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	client := anthropic.NewClient(apiKey, opts...)

	return &ClaudeClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.create(ctx, []anthropic.MessageContent{
		anthropic.NewTextMessageContent(prompt),
	})
}

func (c *ClaudeClient) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	source := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		mimeType,
		base64.StdEncoding.EncodeToString(image),
	)
	return c.create(ctx, []anthropic.MessageContent{
		anthropic.NewImageMessageContent(source),
		anthropic.NewTextMessageContent(prompt),
	})
}

func (c *ClaudeClient) create(ctx context.Context, content []anthropic.MessageContent) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: content,
			},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", classifyClaudeError(err)
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", ErrNoChoices
}

func (c *ClaudeClient) Close() error {
	return nil
}

// claudeErrorStatus maps documented Anthropic error types to the HTTP status
// they are served with. The SDK keeps only the type for decoded errors.
var claudeErrorStatus = map[anthropic.ErrType]int{
	anthropic.ErrTypeInvalidRequest: http.StatusBadRequest,
	anthropic.ErrTypeAuthentication: http.StatusUnauthorized,
	anthropic.ErrTypePermission:     http.StatusForbidden,
	anthropic.ErrTypeNotFound:       http.StatusNotFound,
	anthropic.ErrTypeTooLarge:       http.StatusRequestEntityTooLarge,
	anthropic.ErrTypeRateLimit:      http.StatusTooManyRequests,
	anthropic.ErrTypeApi:            http.StatusInternalServerError,
	anthropic.ErrTypeOverloaded:     529,
}

func classifyClaudeError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("messages: %w", &StatusError{Provider: "claude", StatusCode: reqErr.StatusCode})
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("messages: %w", &StatusError{
			Provider:   "claude",
			StatusCode: claudeErrorStatus[apiErr.Type],
			Message:    apiErr.Message,
		})
	}
	return err
}

// anthropicBaseURL turns a host root such as "https://api.anthropic.com/"
// into the versioned base the SDK expects.
func anthropicBaseURL(baseURL string) string {
	return openAIBaseURL(baseURL)
}
