// Package search composes and post-processes the paginated event query.
//
// A Spec is assembled by the caller (projection toggles plus optional
// filters), turned into SQL text and bound arguments by Compose or
// ComposeLegacy, and reused by the Mapper so that composer and mapper can
// never disagree about which columns a row carries.
package search

import "time"

// DistanceFilter restricts results to a radius (statute miles) around a
// center point.
type DistanceFilter struct {
	Lat         float64
	Long        float64
	RadiusMiles float64
}

// Spec is an immutable query configuration. Every method returns a new
// value; a zero Spec queries all events with no optional projections.
// Projection toggles and filters are independent: setting one never clears
// the other, they are OR'd together when deciding which joins to include.
type Spec struct {
	queryLocation     bool
	queryOrganization bool
	queryAttendance   bool

	distance     *DistanceFilter
	geocodedOnly bool
	eventID      int64
	startDate    *time.Time
	endDate      *time.Time
	attendance   bool
	keywords     []string

	timezone string
	viewerID int64

	// set when the attendance toggle and filter were given two distinct
	// non-zero user ids; surfaced as an error at compose time
	viewerConflict bool
}

// NewSpec returns an empty spec in the given timezone. An empty zone name
// means UTC.
func NewSpec(timezone string) Spec {
	if timezone == "" {
		timezone = "UTC"
	}
	return Spec{timezone: timezone}
}

func (s Spec) QueryLocation() Spec {
	s.queryLocation = true
	return s
}

func (s Spec) QueryOrganization() Spec {
	s.queryOrganization = true
	return s
}

// QueryAttendance projects the per-viewer attendance column. The user id
// may be zero if FilterByAttendance already supplied one.
func (s Spec) QueryAttendance(userID int64) Spec {
	s.queryAttendance = true
	s = s.withViewer(userID)
	return s
}

// FilterByAttendance keeps only events the user attends. The user id may
// be zero if QueryAttendance already supplied one.
func (s Spec) FilterByAttendance(userID int64) Spec {
	s.attendance = true
	s = s.withViewer(userID)
	return s
}

func (s Spec) withViewer(userID int64) Spec {
	switch {
	case userID == 0:
	case s.viewerID == 0:
		s.viewerID = userID
	case s.viewerID != userID:
		s.viewerConflict = true
	}
	return s
}

func (s Spec) FilterByDistance(lat, long, radiusMiles float64) Spec {
	s.distance = &DistanceFilter{Lat: lat, Long: long, RadiusMiles: radiusMiles}
	return s
}

// FilterByHasGeocode keeps only events whose location has been geocoded.
func (s Spec) FilterByHasGeocode() Spec {
	s.geocodedOnly = true
	return s
}

func (s Spec) FilterByEventID(id int64) Spec {
	s.eventID = id
	return s
}

// FilterByStartDate keeps events still running after the day cutoff
// (08:00) on the given date. Only the calendar date is used.
func (s Spec) FilterByStartDate(date time.Time) Spec {
	s.startDate = &date
	return s
}

// FilterByEndDate keeps events starting before the day cutoff of the day
// after the given date, so late-night events still count.
func (s Spec) FilterByEndDate(date time.Time) Spec {
	s.endDate = &date
	return s
}

// FilterByKeywords matches events where ANY keyword matches ANY of
// organization name, event name, categories or description.
func (s Spec) FilterByKeywords(keywords []string) Spec {
	if len(keywords) == 0 {
		return s
	}
	s.keywords = keywords
	return s
}

func (s Spec) Timezone() string { return s.timezone }

// Columns reports which optional column groups a query composed from this
// spec projects. Filters widen the projection: a distance filter needs the
// location columns, a keyword filter scans the organization name.
type Columns struct {
	Organization bool
	Location     bool
	Distance     bool
	Attendance   bool
}

func (s Spec) Columns() Columns {
	return Columns{
		Organization: s.queryOrganization || s.keywords != nil,
		Location:     s.queryLocation || s.distance != nil || s.geocodedOnly,
		Distance:     s.distance != nil,
		Attendance:   s.queryAttendance || s.attendance,
	}
}

// LegacyColumns is the reduced projection of the pre-migration schema,
// where no filter widens the column set.
func (s Spec) LegacyColumns() Columns {
	return Columns{
		Organization: s.queryOrganization,
		Location:     s.queryLocation,
		Attendance:   s.queryAttendance,
	}
}
