package model

import (
	"math"
	"time"
)

// IdentificationCandidate is the top-ranked species guess.
type IdentificationCandidate struct {
	CommonName      string  `json:"common_name"`
	ScientificName  string  `json:"scientific_name"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// StepStatus tags how a pipeline step ended.
type StepStatus string

const (
	StepOK StepStatus = "ok"
	// StepDegraded means the remote call failed and placeholder text was used.
	StepDegraded StepStatus = "degraded"
	// StepNotConfigured means the call was skipped for lack of a credential.
	StepNotConfigured StepStatus = "not_configured"
)

// StepResult is the text produced by the health or advice step. Err holds
// the absorbed cause when Status is not StepOK.
type StepResult struct {
	Text   string
	Status StepStatus
	Err    error
}

func (r StepResult) OK() bool {
	return r.Status == StepOK
}

// Identification is the outcome of the species identification step.
type Identification struct {
	Candidate IdentificationCandidate
	Status    StepStatus
	Err       error
}

type StepReport struct {
	Identification StepStatus `json:"identification"`
	Health         StepStatus `json:"health"`
	Advice         StepStatus `json:"advice"`
}

// PipelineResult is the composite output of one identification run.
type PipelineResult struct {
	Species             string     `json:"species"`
	ScientificName      string     `json:"scientific_name"`
	Confidence          float64    `json:"confidence"`
	HealthAnalysis      string     `json:"health_analysis"`
	CareRecommendations string     `json:"care_recommendations"`
	ImageReference      string     `json:"image_reference"`
	Steps               StepReport `json:"steps"`
}

// PlantRecord is one entry of the user's plant list.
type PlantRecord struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	ScientificName      string    `json:"scientific_name"`
	ImageReference      string    `json:"image_reference"`
	IdentifiedAt        time.Time `json:"identified_at"`
	HealthStatus        string    `json:"health_status"`
	Confidence          float64   `json:"confidence"`
	CareInstructions    string    `json:"care_instructions"`
	WateringFrequency   string    `json:"watering_frequency,omitempty"`
	LightRequirement    string    `json:"light_requirement,omitempty"`
	FertilizingSchedule string    `json:"fertilizing_schedule,omitempty"`
}

// NewPlantRecord copies the fields of r into a record.
func NewPlantRecord(id string, identifiedAt time.Time, r PipelineResult) PlantRecord {
	return PlantRecord{
		ID:               id,
		Name:             r.Species,
		ScientificName:   r.ScientificName,
		ImageReference:   r.ImageReference,
		IdentifiedAt:     identifiedAt,
		HealthStatus:     r.HealthAnalysis,
		Confidence:       r.Confidence,
		CareInstructions: r.CareRecommendations,
	}
}

// ValidConfidence reports whether c lies in [0,1].
func ValidConfidence(c float64) bool {
	return !math.IsNaN(c) && c >= 0 && c <= 1
}

// ClampConfidence forces c into [0,1]; NaN becomes 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
