package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/plantcare/internal/core/model"
	"github.com/agenthands/plantcare/internal/metrics"
	"github.com/agenthands/plantcare/internal/storage"
)

var (
	ErrEmptyImage    = errors.New("empty image")
	ErrImagePersist  = errors.New("failed to persist image")
	ErrStepPanicked  = errors.New("pipeline step panicked")
	ErrInvalidResult = errors.New("invalid pipeline result")
)

type Identifier interface {
	Identify(ctx context.Context, image []byte) model.Identification
}

type HealthAnalyzer interface {
	Analyze(ctx context.Context, image []byte) model.StepResult
}

type Advisor interface {
	Advise(ctx context.Context, candidate model.IdentificationCandidate, healthAnalysis string) model.StepResult
}

// Pipeline runs identification, health analysis and care advice in order
// and assembles the composite result. Only image persistence (or a panic in
// a step) fails a run; remote failures degrade into placeholder text.
type Pipeline struct {
	Images     storage.ImageStore
	Identifier Identifier
	Health     HealthAnalyzer
	Advisor    Advisor
	Plants     storage.PlantStore
	Logger     *zap.Logger
	Metrics    *metrics.Pipeline

	UUIDGenerator func() string
	Now           func() time.Time
}

func NewPipeline(images storage.ImageStore, identifier Identifier, health HealthAnalyzer, advisor Advisor, plants storage.PlantStore, logger *zap.Logger, m *metrics.Pipeline) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Images:        images,
		Identifier:    identifier,
		Health:        health,
		Advisor:       advisor,
		Plants:        plants,
		Logger:        logger,
		Metrics:       m,
		UUIDGenerator: uuid.NewString,
		Now:           time.Now,
	}
}

// Outcome is delivered by RunAsync.
type Outcome struct {
	Result *model.PipelineResult
	Err    error
}

// RunAsync starts Run in its own goroutine. The channel receives exactly one
// Outcome and is then closed.
func (p *Pipeline) RunAsync(ctx context.Context, image []byte) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := p.Run(ctx, image)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

// Run executes one identification. Once started it is not cancelled by ctx;
// each remote call is bounded by its client's own timeout instead.
func (p *Pipeline) Run(ctx context.Context, image []byte) (result *model.PipelineResult, err error) {
	ctx = context.WithoutCancel(ctx)
	started := p.Now()

	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("Pipeline step panicked", zap.Any("panic", r))
			result, err = nil, fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
		p.Metrics.ObserveRun(err)
	}()

	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	// Step 1: persist the image. Failure here aborts the run.
	stepStart := time.Now()
	ref, err := p.Images.Persist(ctx, image)
	if err != nil {
		p.Metrics.ObserveStep("persist", "failed", stepStart)
		p.Logger.Error("Failed to persist image", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrImagePersist, err)
	}
	if ref == "" {
		p.Metrics.ObserveStep("persist", "failed", stepStart)
		return nil, fmt.Errorf("%w: image store returned an empty reference", ErrImagePersist)
	}
	p.Metrics.ObserveStep("persist", string(model.StepOK), stepStart)

	// Step 2: species.
	stepStart = time.Now()
	ident := p.Identifier.Identify(ctx, image)
	p.Metrics.ObserveStep("identification", string(ident.Status), stepStart)

	// Step 3: health.
	stepStart = time.Now()
	health := p.Health.Analyze(ctx, image)
	p.Metrics.ObserveStep("health", string(health.Status), stepStart)

	// Step 4: advice, conditioned on 2 and 3.
	stepStart = time.Now()
	advice := p.Advisor.Advise(ctx, ident.Candidate, health.Text)
	p.Metrics.ObserveStep("advice", string(advice.Status), stepStart)

	// Step 5: assemble.
	result = &model.PipelineResult{
		Species:             ident.Candidate.CommonName,
		ScientificName:      ident.Candidate.ScientificName,
		Confidence:          model.ClampConfidence(ident.Candidate.ConfidenceScore),
		HealthAnalysis:      health.Text,
		CareRecommendations: advice.Text,
		ImageReference:      ref,
		Steps: model.StepReport{
			Identification: ident.Status,
			Health:         health.Status,
			Advice:         advice.Status,
		},
	}

	p.Logger.Info("Pipeline finished",
		zap.String("image_ref", ref),
		zap.String("species", result.Species),
		zap.Float64("confidence", result.Confidence),
		zap.String("identification", string(ident.Status)),
		zap.String("health", string(health.Status)),
		zap.String("advice", string(advice.Status)),
		zap.Duration("duration", p.Now().Sub(started)))

	return result, nil
}

// Commit appends a finished result to the plant list. The result must point
// at an image held by the image store.
func (p *Pipeline) Commit(ctx context.Context, result model.PipelineResult) (*model.PlantRecord, error) {
	if result.ImageReference == "" {
		return nil, fmt.Errorf("%w: missing image reference", ErrInvalidResult)
	}
	if !model.ValidConfidence(result.Confidence) {
		return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidResult, result.Confidence)
	}

	stored, err := p.Images.Exists(ctx, result.ImageReference)
	if err != nil {
		return nil, fmt.Errorf("failed to check image reference: %w", err)
	}
	if !stored {
		return nil, fmt.Errorf("%w: image %q was not stored by this service", ErrInvalidResult, result.ImageReference)
	}

	record := model.NewPlantRecord(p.UUIDGenerator(), p.Now().UTC(), result)
	if err := p.Plants.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save plant: %w", err)
	}
	p.Metrics.ObserveCommit()

	p.Logger.Info("Plant added", zap.String("id", record.ID), zap.String("name", record.Name))
	return &record, nil
}

// ListPlants returns the plant list in insertion order.
func (p *Pipeline) ListPlants(ctx context.Context) ([]model.PlantRecord, error) {
	return p.Plants.ListAll(ctx)
}
