package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/domain/repositories"
)

// RunRepository keeps run records in memory
type RunRepository struct {
	mu   sync.RWMutex
	runs map[string]entities.RunRecord
}

// NewRunRepository creates an empty in-memory run repository
func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[string]entities.RunRecord)}
}

// Verify interface compliance
var _ repositories.RunRepository = (*RunRepository)(nil)

// Save stores a record, assigning an id when it has none
func (r *RunRepository) Save(_ context.Context, record *entities.RunRecord) error {
	if record == nil {
		return fmt.Errorf("run record cannot be nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *record
	stored.Payload = append([]byte(nil), record.Payload...)
	r.runs[record.ID] = stored
	return nil
}

// Get returns the record with the given id
func (r *RunRepository) Get(_ context.Context, id string) (*entities.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, id)
	}
	return &record, nil
}

// List returns the newest records of a kind, newest first. An empty kind matches all.
func (r *RunRepository) List(_ context.Context, kind entities.RunKind, limit int) ([]*entities.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var records []*entities.RunRecord
	for _, record := range r.runs {
		if kind != "" && record.Kind != kind {
			continue
		}
		rec := record
		records = append(records, &rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
