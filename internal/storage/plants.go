package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/core/model"
)

// PlantStore is the user's append-only plant list.
type PlantStore interface {
	Append(ctx context.Context, record model.PlantRecord) error
	ListAll(ctx context.Context) ([]model.PlantRecord, error)
}

// JSONPlantStore keeps the whole list as one JSON array. Appends are
// serialized so concurrent commits never lose records.
type JSONPlantStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONPlantStore(path string) *JSONPlantStore {
	return &JSONPlantStore{path: path}
}

func (s *JSONPlantStore) Append(ctx context.Context, record model.PlantRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := s.read()
	if err != nil {
		return err
	}
	plants = append(plants, record)

	data, err := json.MarshalIndent(plants, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plants: %w", err)
	}
	return config.WriteFileAtomic(s.path, data)
}

func (s *JSONPlantStore) ListAll(ctx context.Context) ([]model.PlantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *JSONPlantStore) read() ([]model.PlantRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.PlantRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plants '%s': %w", s.path, err)
	}
	plants := []model.PlantRecord{}
	if len(data) == 0 {
		return plants, nil
	}
	if err := json.Unmarshal(data, &plants); err != nil {
		return nil, fmt.Errorf("failed to parse plants: %w", err)
	}
	return plants, nil
}
