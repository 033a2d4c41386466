package search

import (
	"strings"
	"testing"
	"time"

	"github.com/citypulse/events-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

// whereSection extracts the WHERE clause of a composed query.
func whereSection(t *testing.T, query string) string {
	t.Helper()
	start := strings.Index(query, "WHERE ")
	end := strings.Index(query, " GROUP BY")
	require.True(t, start >= 0 && end > start, "query has no WHERE section: %s", query)
	return query[start+len("WHERE ") : end]
}

func havingSection(t *testing.T, query string) string {
	t.Helper()
	start := strings.Index(query, "HAVING ")
	end := strings.Index(query, " ORDER BY")
	require.True(t, start >= 0 && end > start, "query has no HAVING section: %s", query)
	return query[start+len("HAVING ") : end]
}

func TestComposeNoFilters(t *testing.T) {
	query, args, err := Compose(NewSpec("UTC"), 0, 20)
	require.NoError(t, err)

	assert.Contains(t, query, "SELECT DISTINCT e.name, e.id, e.description")
	assert.Contains(t, query, "GROUP_CONCAT(m.meta_value) AS categories")
	assert.Contains(t, query, "FROM events_event e")
	assert.Contains(t, query, "LEFT OUTER JOIN events_meta m ON (e.id = m.event_id AND m.meta_key = 'oldtype')")
	assert.Contains(t, query, "WHERE 1", "WHERE must stay present with no filters")
	assert.Contains(t, query, "GROUP BY e.id")
	assert.Contains(t, query, "ORDER BY e.dtend ASC, e.dtstart DESC")
	assert.Contains(t, query, "LIMIT ?, ?")

	assert.NotContains(t, query, "HAVING")
	assert.NotContains(t, query, "places_place")
	assert.NotContains(t, query, "events_attendee")
	assert.NotContains(t, query, "identity_identity")

	// only the pagination values are bound, with the look-ahead row
	assert.Equal(t, []any{0, 21}, args)
}

func TestComposeWherePredicateCount(t *testing.T) {
	tests := []struct {
		name       string
		spec       Spec
		predicates int
	}{
		{
			name:       "no filters",
			spec:       NewSpec("UTC"),
			predicates: 0,
		},
		{
			name:       "event id only",
			spec:       NewSpec("UTC").FilterByEventID(42),
			predicates: 1,
		},
		{
			name:       "both date bounds",
			spec:       NewSpec("UTC").FilterByStartDate(date("2024-01-01")).FilterByEndDate(date("2024-01-31")),
			predicates: 2,
		},
		{
			name: "every filter",
			spec: NewSpec("UTC").
				FilterByEventID(42).
				FilterByStartDate(date("2024-01-01")).
				FilterByEndDate(date("2024-01-31")).
				FilterByHasGeocode().
				FilterByAttendance(7),
			predicates: 5,
		},
		{
			name:       "projection toggles add no predicates",
			spec:       NewSpec("UTC").QueryLocation().QueryOrganization().QueryAttendance(7),
			predicates: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, _, err := Compose(tt.spec, 0, 20)
			require.NoError(t, err)

			where := whereSection(t, query)
			if tt.predicates == 0 {
				assert.Equal(t, "1", where)
				return
			}
			assert.Equal(t, tt.predicates, strings.Count(where, ") AND (")+1)
		})
	}
}

func TestComposeDayCutoffBoundaries(t *testing.T) {
	spec := NewSpec("UTC").
		FilterByStartDate(date("2024-01-05")).
		FilterByEndDate(date("2024-01-05"))

	query, args, err := Compose(spec, 0, 20)
	require.NoError(t, err)

	assert.Contains(t, query, "e.dtend > ?")
	assert.Contains(t, query, "e.dtstart < ?")

	// an event ending 07:59 on the 5th belongs to the 4th, one ending
	// 08:01 belongs to the 5th: the bound value carries the 08:00 cutoff
	assert.Contains(t, args, any("2024-01-05 08:00"))
	// the end bound shifts one day so events starting before 08:00 on the
	// 6th still count as the 5th
	assert.Contains(t, args, any("2024-01-06 08:00"))
}

func TestComposeDistanceFilter(t *testing.T) {
	spec := NewSpec("UTC").FilterByDistance(40.44, -79.99, 10)

	query, args, err := Compose(spec, 0, 20)
	require.NoError(t, err)

	assert.Contains(t, query, "3959 * ACOS", "haversine projection missing")
	assert.Contains(t, query, "AS distance")
	assert.Contains(t, query, "INNER JOIN places_place p ON (e.place_id = p.id)")
	assert.Contains(t, query, "INNER JOIN places_location l ON (p.location_id = l.id)")
	assert.Contains(t, havingSection(t, query), "distance < ?")

	// :lat appears twice in the haversine expression, then :long, then the
	// radius, then pagination
	assert.Equal(t, []any{40.44, -79.99, 40.44, 10.0, 0, 21}, args)
}

// The keyword predicate is an OR of ORs: an event matches when ANY keyword
// matches ANY of organization name, event name, categories or description.
// This mirrors the long-standing production behavior; confirm with the
// product owner before tightening it to AND-across-keywords.
func TestComposeKeywordsAnyTermAnyField(t *testing.T) {
	spec := NewSpec("UTC").FilterByKeywords([]string{"jazz", "food"})

	query, args, err := Compose(spec, 0, 20)
	require.NoError(t, err)

	having := havingSection(t, query)
	assert.Equal(t, 8, strings.Count(having, "RLIKE"), "four fields per keyword")
	assert.NotContains(t, having, "AND", "keywords must be OR'd, never AND'd")

	for _, field := range []string{"organization_name RLIKE ?", "e.name RLIKE ?", "categories RLIKE ?", "e.description RLIKE ?"} {
		assert.Contains(t, having, field)
	}

	// keyword search scans the organization name, so the identity joins
	// come in even without the organization toggle
	assert.Contains(t, query, "LEFT OUTER JOIN identity_identity i")

	// each keyword is bound once per field it matches against
	assert.Equal(t, []any{"jazz", "jazz", "jazz", "jazz", "food", "food", "food", "food", 0, 21}, args)
}

func TestComposeAttendanceJoinType(t *testing.T) {
	toggled, _, err := Compose(NewSpec("UTC").QueryAttendance(7), 0, 20)
	require.NoError(t, err)
	assert.Contains(t, toggled, "LEFT OUTER JOIN events_attendee a ON (e.id = a.event_id)",
		"reporting attendance must not exclude unattended events")
	assert.NotContains(t, whereSection(t, toggled), "a.individual")

	filtered, args, err := Compose(NewSpec("UTC").FilterByAttendance(7), 0, 20)
	require.NoError(t, err)
	assert.Contains(t, filtered, "INNER JOIN events_attendee a ON (e.id = a.event_id)",
		"filtering by attendance keeps only the user's rows")
	assert.Contains(t, whereSection(t, filtered), "a.individual = ?")
	assert.Contains(t, args, any(int64(7)))
}

func TestComposeViewerIdentity(t *testing.T) {
	t.Run("conflicting ids rejected", func(t *testing.T) {
		spec := NewSpec("UTC").QueryAttendance(1).FilterByAttendance(2)
		_, _, err := Compose(spec, 0, 20)
		assert.ErrorIs(t, err, entity.ErrConflictingViewer)
	})

	t.Run("matching ids accepted", func(t *testing.T) {
		spec := NewSpec("UTC").QueryAttendance(7).FilterByAttendance(7)
		_, args, err := Compose(spec, 0, 20)
		require.NoError(t, err)
		assert.Contains(t, args, any(int64(7)))
	})

	t.Run("id may be omitted on the later call", func(t *testing.T) {
		spec := NewSpec("UTC").QueryAttendance(7).FilterByAttendance(0)
		_, args, err := Compose(spec, 0, 20)
		require.NoError(t, err)
		assert.Contains(t, args, any(int64(7)))
	})

	t.Run("filter without any id rejected", func(t *testing.T) {
		spec := NewSpec("UTC").FilterByAttendance(0)
		_, _, err := Compose(spec, 0, 20)
		assert.ErrorIs(t, err, entity.ErrMissingViewer)
	})
}

func TestComposeNeverInlinesValues(t *testing.T) {
	hostile := "'; DROP TABLE events_event; --"
	spec := NewSpec("UTC").
		FilterByKeywords([]string{hostile}).
		FilterByStartDate(date("2024-01-01"))

	query, args, err := Compose(spec, 0, 20)
	require.NoError(t, err)

	assert.NotContains(t, query, hostile, "caller values must only travel as bound parameters")
	assert.Contains(t, args, any(hostile))
}

func TestComposeRejectsBadLimit(t *testing.T) {
	_, _, err := Compose(NewSpec("UTC"), 0, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestComposeSpecValuesAreIndependent(t *testing.T) {
	base := NewSpec("UTC")
	located := base.QueryLocation()

	baseQuery, _, err := Compose(base, 0, 20)
	require.NoError(t, err)
	locatedQuery, _, err := Compose(located, 0, 20)
	require.NoError(t, err)

	assert.NotContains(t, baseQuery, "places_location", "deriving a new spec must not mutate the original")
	assert.Contains(t, locatedQuery, "places_location")
}

// countProjectedColumns counts top-level comma-separated expressions in the
// SELECT list, ignoring commas nested inside parentheses.
func countProjectedColumns(t *testing.T, query string) int {
	t.Helper()
	start := strings.Index(query, "SELECT DISTINCT ")
	end := strings.Index(query, " FROM ")
	require.True(t, start >= 0 && end > start)
	sel := query[start+len("SELECT DISTINCT ") : end]

	depth, count := 0, 1
	for _, r := range sel {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// The mapper scans whatever the composer projects; the two must agree on
// the column count for every toggle/filter combination.
func TestComposerAndScanTargetsAgree(t *testing.T) {
	specs := map[string]Spec{
		"bare":              NewSpec("UTC"),
		"location":          NewSpec("UTC").QueryLocation(),
		"organization":      NewSpec("UTC").QueryOrganization(),
		"attendance":        NewSpec("UTC").QueryAttendance(7),
		"distance":          NewSpec("UTC").FilterByDistance(40, -80, 5),
		"keywords":          NewSpec("UTC").FilterByKeywords([]string{"jazz"}),
		"geocoded":          NewSpec("UTC").FilterByHasGeocode(),
		"attendance filter": NewSpec("UTC").FilterByAttendance(7),
		"everything": NewSpec("UTC").
			QueryLocation().QueryOrganization().QueryAttendance(7).
			FilterByDistance(40, -80, 5).FilterByKeywords([]string{"jazz"}).
			FilterByHasGeocode().FilterByStartDate(date("2024-01-01")),
	}

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			query, _, err := Compose(spec, 0, 20)
			require.NoError(t, err)

			var row Row
			assert.Equal(t,
				countProjectedColumns(t, query),
				len(row.ScanTargets(spec.Columns())),
				"projected columns and scan targets diverged")
		})
	}
}
