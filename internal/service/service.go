package service

import (
	"context"
	"time"

	"github.com/citypulse/events-api/internal/entity"
	"github.com/citypulse/events-api/internal/search"
)

// SearchEventsRequest carries the filters for an event list query. Every
// field is optional; zero values leave the corresponding filter off.
type SearchEventsRequest struct {
	StartDate *time.Time
	EndDate   *time.Time
	Keywords  []string
	Distance  *search.DistanceFilter
	Geocoded  bool

	// ViewerID is the authenticated user supplied by the host app; it
	// switches on the attendance projection. AttendingOnly additionally
	// restricts results to events that viewer attends.
	ViewerID      int64
	AttendingOnly bool

	Timezone string
	Offset   int
	Limit    int
}

type EventQueryService interface {
	// FetchEvent returns a single event by id, dispatching to the modern
	// or legacy pipeline depending on the configured id threshold.
	FetchEvent(ctx context.Context, id int64, timezone string, viewerID int64) (*entity.EventRecord, error)

	// SearchEvents runs a paginated query over the modern schema.
	SearchEvents(ctx context.Context, req *SearchEventsRequest) (*entity.PageResult, error)
}
