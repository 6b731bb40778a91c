package advice

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/core/common"
	"github.com/agenthands/plantcare/internal/core/model"
	"github.com/agenthands/plantcare/internal/llm"
)

// Advisor writes care advice from the identified species and its health analysis.
type Advisor struct {
	Settings  config.Provider
	NewClient llm.Factory
	Logger    *zap.Logger
	Timeout   time.Duration
}

func NewAdvisor(settings config.Provider, factory llm.Factory, logger *zap.Logger, timeout time.Duration) *Advisor {
	if factory == nil {
		factory = llm.NewClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		Settings:  settings,
		NewClient: factory,
		Logger:    logger,
		Timeout:   timeout,
	}
}

func Sentinels(msgs config.Messages) common.Sentinels {
	return common.Sentinels{
		NotConfigured: msgs.AdviceNotConfigured,
		Failed:        msgs.AdviceFailed,
		Unavailable:   msgs.AdviceUnavailable,
		ErrorFormat:   msgs.AdviceError,
	}
}

// BuildPrompt renders the advice prompt. Confidence is shown as a percentage
// with two decimals.
func BuildPrompt(msgs config.Messages, candidate model.IdentificationCandidate, healthAnalysis string) string {
	percent := fmt.Sprintf("%.2f", candidate.ConfidenceScore*100)
	return fmt.Sprintf(msgs.AdvicePrompt, candidate.CommonName, candidate.ScientificName, percent, healthAnalysis)
}

func (a *Advisor) Advise(ctx context.Context, candidate model.IdentificationCandidate, healthAnalysis string) model.StepResult {
	settings, err := a.Settings.Current(ctx)
	if err != nil {
		return a.absorb(common.Degrade(fmt.Errorf("failed to read settings: %w", err), Sentinels(config.MessagesFor(config.DefaultLocale))))
	}
	msgs := config.MessagesFor(settings.Locale)
	sentinels := Sentinels(msgs)

	if settings.Generative.Token == "" {
		return common.NotConfigured(sentinels)
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	client, err := a.NewClient(ctx, settings.TextLLM())
	if err != nil {
		return a.absorb(common.Degrade(err, sentinels))
	}
	defer client.Close()

	text, err := client.Generate(ctx, BuildPrompt(msgs, candidate, healthAnalysis))
	return a.absorb(common.Complete(text, err, sentinels))
}

func (a *Advisor) absorb(r model.StepResult) model.StepResult {
	if r.Err != nil {
		a.Logger.Warn("Care advice degraded",
			zap.String("step", "advice"),
			zap.String("status", string(r.Status)),
			zap.Error(r.Err))
	}
	return r
}
