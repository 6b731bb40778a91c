package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is one configured generative model.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// DescribeImage sends prompt together with a single image.
	DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	Close() error
}

// ErrNoChoices is returned when the provider answered successfully but with
// no usable completion.
var ErrNoChoices = errors.New("no response choices")

// StatusError reports a provider response outside the 2xx range.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Provider + " error"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s status %d", e.Provider, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IsStatus reports whether err came from an HTTP-level provider failure.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
