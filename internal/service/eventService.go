package service

import (
	"context"
	"fmt"

	"github.com/citypulse/events-api/config"
	repository "github.com/citypulse/events-api/internal/database/mysql"
	"github.com/citypulse/events-api/internal/entity"
	"github.com/citypulse/events-api/internal/search"
)

type eventQueryService struct {
	repo repository.EventSearchRepository
	cfg  config.AppConfig
}

// NewEventQueryService creates a new instance of EventQueryService
func NewEventQueryService(repo repository.EventSearchRepository, cfg config.AppConfig) EventQueryService {
	return &eventQueryService{repo: repo, cfg: cfg}
}

func (s *eventQueryService) FetchEvent(ctx context.Context, id int64, timezone string, viewerID int64) (*entity.EventRecord, error) {
	if id <= 0 {
		return nil, entity.ErrMissingEventID
	}
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}

	spec := search.NewSpec(timezone).
		QueryLocation().
		QueryOrganization()
	if viewerID != 0 {
		spec = spec.QueryAttendance(viewerID)
	}
	spec = spec.FilterByEventID(id)

	// ids below the threshold predate the migration and live in the old
	// schema, reachable only by single-record lookup
	if id < s.cfg.LegacyIDThreshold {
		record, err := s.repo.FetchLegacy(ctx, spec)
		if err != nil {
			return nil, err
		}
		return record, nil
	}

	page, err := s.repo.Search(ctx, spec, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event %d: %w", id, err)
	}
	if len(page.Items) == 0 {
		return nil, entity.ErrEventNotFound
	}
	return &page.Items[0], nil
}

func (s *eventQueryService) SearchEvents(ctx context.Context, req *SearchEventsRequest) (*entity.PageResult, error) {
	timezone := req.Timezone
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}

	spec := search.NewSpec(timezone).
		QueryLocation().
		QueryOrganization()

	if req.ViewerID != 0 {
		spec = spec.QueryAttendance(req.ViewerID)
	}
	if req.AttendingOnly {
		spec = spec.FilterByAttendance(req.ViewerID)
	}
	if req.StartDate != nil {
		spec = spec.FilterByStartDate(*req.StartDate)
	}
	if req.EndDate != nil {
		spec = spec.FilterByEndDate(*req.EndDate)
	}
	if len(req.Keywords) > 0 {
		spec = spec.FilterByKeywords(req.Keywords)
	}
	if req.Distance != nil {
		spec = spec.FilterByDistance(req.Distance.Lat, req.Distance.Long, req.Distance.RadiusMiles)
	}
	if req.Geocoded {
		spec = spec.FilterByHasGeocode()
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	page, err := s.repo.Search(ctx, spec, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	return page, nil
}
