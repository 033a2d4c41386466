package search

import (
	"github.com/citypulse/events-api/internal/entity"
)

// ComposeLegacy builds the reduced single-record query against the
// pre-migration oldevents_* schema. Only the projection toggles and the
// event id apply there: no distance, keyword or date filtering, and the
// attendance join is always a left outer because the old schema offers no
// attendance filter. The lookup is pinned to one row (plus look-ahead).
func ComposeLegacy(s Spec) (string, []any, error) {
	if s.eventID == 0 {
		return "", nil, entity.ErrMissingEventID
	}

	clauses := []clause{
		s.buildLegacySelect(),
		s.buildLegacyFrom(),
		bind("WHERE e.id = :eid", map[string]any{"eid": s.eventID}),
		expr("GROUP BY e.id"),
		expr("LIMIT 0, 2"),
	}
	return render(clauses)
}

func (s Spec) buildLegacySelect() clause {
	cols := s.LegacyColumns()
	sel := `SELECT DISTINCT e.name, e.id, e.description, SUBSTRING_INDEX(e.description, ' ', 30) AS description_short, e.dtstart, e.dtend, e.image_url, GROUP_CONCAT(m.meta_value) AS categories`

	if cols.Organization {
		sel += ", o.name AS organization_name, o.url AS organization_link_url"
	}

	if cols.Location {
		sel += ", l.address, l.latitude, l.longitude"
	}

	if cols.Attendance {
		sel += ", a.individual"
	}
	return expr(sel)
}

func (s Spec) buildLegacyFrom() clause {
	cols := s.LegacyColumns()

	from := "FROM oldevents_event e"

	if cols.Location {
		from += " INNER JOIN oldevents_location l ON (e.location_id = l.id)"
	}

	if cols.Attendance {
		from += " LEFT OUTER JOIN oldevents_attendee a ON (e.id = a.event_id)"
	}

	if cols.Organization {
		from += " LEFT OUTER JOIN oldevents_role ON (e.id = oldevents_role.event_id AND oldevents_role.role_name = 'creator')"
		from += " LEFT OUTER JOIN oldevents_organization o ON (oldevents_role.organization_id = o.id)"
	}

	from += " LEFT OUTER JOIN oldevents_meta m ON (e.id = m.event_id AND m.meta_key = 'oldtype')"

	return expr(from)
}
