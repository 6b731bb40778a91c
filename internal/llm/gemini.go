package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGeminiClient talks to the Gemini REST API. baseURL is the host root;
// the API version is added by the SDK.
func NewGeminiClient(ctx context.Context, apiKey string, model string, baseURL string, maxTokens int) (*GeminiClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(baseURL, "/")))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, genai.Text(prompt))
}

func (c *GeminiClient) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	// genai wants the subtype only, e.g. "jpeg".
	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" {
		format = "jpeg"
	}
	return c.generate(ctx, genai.Text(prompt), genai.ImageData(format, image))
}

func (c *GeminiClient) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetMaxOutputTokens(int32(c.maxTokens))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			return "", fmt.Errorf("generate content: %w", &StatusError{Provider: "gemini", StatusCode: gErr.Code, Message: gErr.Message})
		}
		return "", err
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		part := resp.Candidates[0].Content.Parts[0]
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}

	return "", ErrNoChoices
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
