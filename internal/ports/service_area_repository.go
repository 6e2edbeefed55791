package ports

import (
	"context"
	"servicearea-service/internal/domain"
	"time"
)

// A completed pipeline run as persisted by a repository.
type ServiceAreaRun struct {
	RunID     string
	CreatedAt time.Time
	Params    domain.Params
	TierSpecs []domain.TierSpec
	Areas     []domain.ServiceArea
}

// Port: output sink and lookup for service area runs.
type ServiceAreaRepository interface {
	// Persist a run and its dissolved service areas.
	SaveRun(ctx context.Context, run ServiceAreaRun) error
	// Load a run by id. Returns domain.ErrRunNotFound for unknown ids.
	GetRun(ctx context.Context, runID string) (ServiceAreaRun, error)
}

// Side-channel registration of a finished output layer under a named
// group, e.g. "Results".
type ResultRegistry interface {
	RegisterResult(ctx context.Context, group, runID, layer string) error
}

// Lists run ids registered under a group, oldest first.
type ResultLister interface {
	ListResults(ctx context.Context, group string) ([]string, error)
}
