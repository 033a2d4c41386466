package search

import (
	"github.com/citypulse/events-api/internal/entity"
)

// NewPage trims the look-ahead row the composer over-fetches and reports
// whether results beyond this page exist.
func NewPage(records []entity.EventRecord, limit int) *entity.PageResult {
	more := len(records) > limit
	if more {
		records = records[:limit]
	}
	if records == nil {
		records = []entity.EventRecord{}
	}
	return &entity.PageResult{Items: records, MoreAvailable: more}
}
