package health

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

// Analyzer describes plant health from a photo with a vision model.
type Analyzer struct {
	Settings  config.Provider
	NewClient llm.Factory
	Logger    *zap.Logger
	Timeout   time.Duration
}

func NewAnalyzer(settings config.Provider, factory llm.Factory, logger *zap.Logger, timeout time.Duration) *Analyzer {
	if factory == nil {
		factory = llm.NewClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		Settings:  settings,
		NewClient: factory,
		Logger:    logger,
		Timeout:   timeout,
	}
}

func Sentinels(msgs config.Messages) common.Sentinels {
	return common.Sentinels{
		NotConfigured: msgs.HealthNotConfigured,
		Failed:        msgs.HealthFailed,
		Unavailable:   msgs.HealthUnavailable,
		ErrorFormat:   msgs.HealthError,
	}
}

// Analyze returns a health narrative. Failures come back as placeholder text
// with a non-OK status; no network call is made without a credential.
func (a *Analyzer) Analyze(ctx context.Context, image []byte) model.StepResult {
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

	client, err := a.NewClient(ctx, settings.VisionLLM())
	if err != nil {
		return a.absorb(common.Degrade(err, sentinels))
	}
	defer client.Close()

	text, err := client.DescribeImage(ctx, msgs.HealthPrompt, image, llm.ImageMIME(image))
	return a.absorb(common.Complete(text, err, sentinels))
}

func (a *Analyzer) absorb(r model.StepResult) model.StepResult {
	if r.Err != nil {
		a.Logger.Warn("Health analysis degraded",
			zap.String("step", "health"),
			zap.String("status", string(r.Status)),
			zap.Error(r.Err))
	}
	return r
}
