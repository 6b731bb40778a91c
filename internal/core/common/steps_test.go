package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/agenthands/plantcare/internal/core/model"
	"github.com/agenthands/plantcare/internal/llm"
	"github.com/stretchr/testify/assert"
)

var sentinels = Sentinels{
	NotConfigured: "configure it",
	Failed:        "failed",
	Unavailable:   "unavailable",
	ErrorFormat:   "error: %s",
}

func TestComplete(t *testing.T) {
	r := Complete("fine", nil, sentinels)
	assert.Equal(t, model.StepOK, r.Status)
	assert.Equal(t, "fine", r.Text)
	assert.True(t, r.OK())

	r = Complete("", nil, sentinels)
	assert.Equal(t, model.StepDegraded, r.Status)
	assert.Equal(t, "failed", r.Text)
}

func TestDegrade(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no choices", llm.ErrNoChoices, "failed"},
		{"status", fmt.Errorf("wrapped: %w", &llm.StatusError{Provider: "openai", StatusCode: 500}), "unavailable"},
		{"transport", errors.New("dial tcp: connection refused"), "error: dial tcp: connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Degrade(tt.err, sentinels)
			assert.Equal(t, tt.want, r.Text)
			assert.Equal(t, model.StepDegraded, r.Status)
			assert.ErrorIs(t, r.Err, tt.err)
		})
	}
}

func TestNotConfigured(t *testing.T) {
	r := NotConfigured(sentinels)
	assert.Equal(t, model.StepNotConfigured, r.Status)
	assert.Equal(t, "configure it", r.Text)
	assert.NoError(t, r.Err)
}
