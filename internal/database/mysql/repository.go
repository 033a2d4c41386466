package repository

import (
	"context"

	"github.com/citypulse/events-api/internal/entity"
	"github.com/citypulse/events-api/internal/search"
)

type EventSearchRepository interface {
	// Search runs the composed paginated query and returns one page plus
	// the look-ahead flag.
	Search(ctx context.Context, spec search.Spec, offset, limit int) (*entity.PageResult, error)

	// FetchLegacy looks up a single pre-migration record by the event id
	// set on the spec.
	FetchLegacy(ctx context.Context, spec search.Spec) (*entity.EventRecord, error)
}
