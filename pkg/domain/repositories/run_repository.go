package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/perishable/pkg/domain/entities"
)

// ErrRunNotFound is returned when a run id has no stored record
var ErrRunNotFound = errors.New("run not found")

// RunRepository persists simulation, optimization and comparison results
type RunRepository interface {
	Save(ctx context.Context, record *entities.RunRecord) error
	Get(ctx context.Context, id string) (*entities.RunRecord, error)
	List(ctx context.Context, kind entities.RunKind, limit int) ([]*entities.RunRecord, error)
}
