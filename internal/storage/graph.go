package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/plantcare/internal/core/model"
	"github.com/agenthands/plantcare/internal/driver"
)

// GraphPlantStore keeps plant records as :Plant nodes. Appends from this
// process are serialized; the seq counter node orders them across processes.
type GraphPlantStore struct {
	Driver driver.GraphDriver

	mu sync.Mutex
}

func NewGraphPlantStore(d driver.GraphDriver) *GraphPlantStore {
	return &GraphPlantStore{Driver: d}
}

func (s *GraphPlantStore) Append(ctx context.Context, r model.PlantRecord) error {
	params := map[string]interface{}{
		"id":                   r.ID,
		"name":                 r.Name,
		"scientific_name":      r.ScientificName,
		"image_reference":      r.ImageReference,
		"identified_at":        r.IdentifiedAt.UTC().Format(time.RFC3339Nano),
		"health_status":        r.HealthStatus,
		"confidence":           r.Confidence,
		"care_instructions":    r.CareInstructions,
		"watering_frequency":   r.WateringFrequency,
		"light_requirement":    r.LightRequirement,
		"fertilizing_schedule": r.FertilizingSchedule,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.Driver.ExecuteQuery(ctx, driver.AppendPlantQuery, params); err != nil {
		return fmt.Errorf("failed to append plant: %w", err)
	}
	return nil
}

func (s *GraphPlantStore) ListAll(ctx context.Context) ([]model.PlantRecord, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListPlantsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}

	plants := make([]model.PlantRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		p, err := recordToPlant(rec)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}
	return plants, nil
}

func recordToPlant(rec *neo4j.Record) (model.PlantRecord, error) {
	str := func(key string) string {
		v, _ := rec.Get(key)
		s, _ := v.(string)
		return s
	}

	var confidence float64
	if v, ok := rec.Get("confidence"); ok {
		switch c := v.(type) {
		case float64:
			confidence = c
		case int64:
			confidence = float64(c)
		}
	}

	var identifiedAt time.Time
	if raw := str("identified_at"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return model.PlantRecord{}, fmt.Errorf("invalid identified_at %q: %w", raw, err)
		}
		identifiedAt = t
	}

	return model.PlantRecord{
		ID:                  str("id"),
		Name:                str("name"),
		ScientificName:      str("scientific_name"),
		ImageReference:      str("image_reference"),
		IdentifiedAt:        identifiedAt,
		HealthStatus:        str("health_status"),
		Confidence:          confidence,
		CareInstructions:    str("care_instructions"),
		WateringFrequency:   str("watering_frequency"),
		LightRequirement:    str("light_requirement"),
		FertilizingSchedule: str("fertilizing_schedule"),
	}, nil
}
