package llm

import (
	"context"
	"sync"

	"github.com/agenthands/plantcare/internal/config"
)

// MockClient returns canned answers and counts calls. It is used by tests
// across packages.
type MockClient struct {
	Response string
	Err      error

	mu             sync.Mutex
	GenerateCalls  int
	DescribeCalls  int
	Prompts        []string
	Images         [][]byte
	MIMETypes      []string
	ReceivedConfig []config.LLMConfig
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateCalls++
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockClient) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DescribeCalls++
	m.Prompts = append(m.Prompts, prompt)
	m.Images = append(m.Images, image)
	m.MIMETypes = append(m.MIMETypes, mimeType)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockClient) Close() error {
	return nil
}

// Calls is the total number of remote calls made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateCalls + m.DescribeCalls
}

// Factory returns a Factory handing out m and recording each config.
func (m *MockClient) Factory() Factory {
	return func(ctx context.Context, cfg config.LLMConfig) (Client, error) {
		m.mu.Lock()
		m.ReceivedConfig = append(m.ReceivedConfig, cfg)
		m.mu.Unlock()
		return m, nil
	}
}
