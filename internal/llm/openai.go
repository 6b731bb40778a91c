package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAIClient(apiKey string, model string, baseURL string, maxTokens int) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt},
	})
}

func (c *OpenAIClient) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	return c.complete(ctx, []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt},
		{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: DataURL(image, mimeType)},
		},
	})
}

func (c *OpenAIClient) complete(ctx context.Context, parts []openai.ChatMessagePart) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens: c.maxTokens,
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, nil
	}
	return "", ErrNoChoices
}

func (c *OpenAIClient) Close() error {
	return nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion: %w", &StatusError{
			Provider:   "openai",
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
		})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat completion: %w", &StatusError{
			Provider:   "openai",
			StatusCode: reqErr.HTTPStatusCode,
		})
	}
	return err
}

// DataURL encodes image as a data: URL. An empty mimeType means JPEG.
func DataURL(image []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
}

// ImageMIME sniffs the image type, defaulting to JPEG for anything that is
// not recognisably an image.
func ImageMIME(image []byte) string {
	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		return "image/jpeg"
	}
	return mimeType
}
