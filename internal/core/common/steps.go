package common

import (
	"errors"
	"fmt"

	"github.com/agenthands/plantcare/internal/core/model"
	"github.com/agenthands/plantcare/internal/llm"
)

// Sentinels are the placeholder texts of one generative step.
type Sentinels struct {
	NotConfigured string
	Failed        string
	Unavailable   string
	// ErrorFormat takes the error detail.
	ErrorFormat string
}

// NotConfigured is the result of a step skipped for lack of a credential.
func NotConfigured(s Sentinels) model.StepResult {
	return model.StepResult{Text: s.NotConfigured, Status: model.StepNotConfigured}
}

// Degrade maps a failed model call onto its placeholder text:
// no choices -> Failed, provider HTTP status -> Unavailable, anything else ->
// ErrorFormat with the error detail.
func Degrade(err error, s Sentinels) model.StepResult {
	var text string
	switch {
	case errors.Is(err, llm.ErrNoChoices):
		text = s.Failed
	case llm.IsStatus(err):
		text = s.Unavailable
	default:
		text = fmt.Sprintf(s.ErrorFormat, err.Error())
	}
	return model.StepResult{Text: text, Status: model.StepDegraded, Err: err}
}

// Complete turns a model answer into a step result. An empty answer counts
// as no choice.
func Complete(text string, err error, s Sentinels) model.StepResult {
	if err == nil && text == "" {
		err = llm.ErrNoChoices
	}
	if err != nil {
		return Degrade(err, s)
	}
	return model.StepResult{Text: text, Status: model.StepOK}
}
