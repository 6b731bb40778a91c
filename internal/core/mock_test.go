package core

import (
	"context"
	"errors"
	"sync"

	"github.com/agenthands/plantcare/internal/core/model"
)

type MockImageStore struct {
	Ref       string
	Err       error
	ExistsErr error
	Persists  int
}

func (m *MockImageStore) Persist(ctx context.Context, image []byte) (string, error) {
	m.Persists++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Ref, nil
}

func (m *MockImageStore) Load(ctx context.Context, ref string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

// Exists knows only the one reference it hands out.
func (m *MockImageStore) Exists(ctx context.Context, ref string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return ref != "" && ref == m.Ref, nil
}

type MockPlantStore struct {
	mu      sync.Mutex
	Records []model.PlantRecord
	Err     error
}

func (m *MockPlantStore) Append(ctx context.Context, r model.PlantRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, r)
	return nil
}

func (m *MockPlantStore) ListAll(ctx context.Context) ([]model.PlantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PlantRecord(nil), m.Records...), nil
}

type MockIdentifier struct {
	Result model.Identification
	Calls  int
	Panic  bool
}

func (m *MockIdentifier) Identify(ctx context.Context, image []byte) model.Identification {
	m.Calls++
	if m.Panic {
		panic("identifier exploded")
	}
	return m.Result
}
