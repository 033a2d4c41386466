package search

import (
	"fmt"
	"strconv"

	"github.com/citypulse/events-api/internal/entity"
)

// dayCutoff is the time at which one event day rolls over into the next:
// anything before 08:00 UTC still belongs to the previous day.
const dayCutoff = "08:00"

const isoDate = "2006-01-02"

// haversine computes the great-circle distance in statute miles between
// the bound center point and a row's location.
const haversine = "( 3959 * ACOS( COS( RADIANS(:lat) ) * COS( RADIANS( l.latitude ) ) * COS( RADIANS( l.longitude ) - RADIANS(:long) ) + SIN( RADIANS(:lat) ) * SIN( RADIANS( l.latitude ) ) ) )"

func (s Spec) validate() error {
	if s.viewerConflict {
		return entity.ErrConflictingViewer
	}
	if s.attendance && s.viewerID == 0 {
		return entity.ErrMissingViewer
	}
	return nil
}

// Compose turns the spec into the final query text plus the ordered
// argument list. The query always fetches limit+1 rows so the caller can
// detect a further page without a second COUNT query.
func Compose(s Spec, offset, limit int) (string, []any, error) {
	if err := s.validate(); err != nil {
		return "", nil, err
	}
	if limit < 1 {
		return "", nil, fmt.Errorf("%w: limit must be positive", entity.ErrInvalidInput)
	}
	if offset < 0 {
		offset = 0
	}

	clauses := []clause{
		s.buildSelect(),
		s.buildFrom(),
		s.buildWhere(),
		expr("GROUP BY e.id"),
	}
	if having, ok := s.buildHaving(); ok {
		clauses = append(clauses, having)
	}
	clauses = append(clauses,
		expr("ORDER BY e.dtend ASC, e.dtstart DESC"),
		bind("LIMIT :offset, :rowcount", map[string]any{
			"offset":   offset,
			"rowcount": limit + 1,
		}),
	)

	return render(clauses)
}

func (s Spec) buildSelect() clause {
	cols := s.Columns()
	sel := `SELECT DISTINCT e.name, e.id, e.description, SUBSTRING_INDEX(e.description, ' ', 30) AS description_short, e.dtstart, e.dtend, e.image_url, GROUP_CONCAT(m.meta_value) AS categories`
	args := map[string]any{}

	if cols.Organization {
		sel += ", i.name AS organization_name, o.url AS organization_link_url"
	}

	if cols.Location {
		sel += ", l.address, l.latitude, l.longitude"

		if cols.Distance {
			sel += ", " + haversine + " AS distance"
			args["lat"] = s.distance.Lat
			args["long"] = s.distance.Long
		}
	}

	if cols.Attendance {
		sel += ", a.individual"
	}
	return bind(sel, args)
}

func (s Spec) buildFrom() clause {
	cols := s.Columns()

	// always querying primarily from the events table
	from := "FROM events_event e"

	if cols.Location {
		from += " INNER JOIN places_place p ON (e.place_id = p.id)"
		from += " INNER JOIN places_location l ON (p.location_id = l.id)"
	}

	if cols.Attendance {
		// an actual attendance filter wants only rows the user attends,
		// so inner join; a bare projection reports absence via NULL
		joinType := "LEFT OUTER"
		if s.attendance {
			joinType = "INNER"
		}
		from += " " + joinType + " JOIN events_attendee a ON (e.id = a.event_id)"
	}

	if cols.Organization {
		from += " LEFT OUTER JOIN events_role ON (e.id = events_role.event_id AND events_role.role_name = 'creator')"
		from += " LEFT OUTER JOIN identity_identity i ON (i.id = events_role.organization_id)"
		from += " LEFT OUTER JOIN identity_organization o ON (i.id = o.identity_ptr_id)"
	}

	// category rows must never exclude an event
	from += " LEFT OUTER JOIN events_meta m ON (e.id = m.event_id AND m.meta_key = 'oldtype')"

	return expr(from)
}

func (s Spec) buildWhere() clause {
	var predicates []clause

	if s.eventID != 0 {
		predicates = append(predicates, bind("e.id = :eid", map[string]any{"eid": s.eventID}))
	}

	if s.startDate != nil {
		// an event still counts for day D while it runs past 08:00 of D
		predicates = append(predicates, bind("e.dtend > :startdate", map[string]any{
			"startdate": s.startDate.Format(isoDate) + " " + dayCutoff,
		}))
	}

	if s.endDate != nil {
		// events starting before 08:00 of the following day still belong
		// to the requested end date
		predicates = append(predicates, bind("e.dtstart < :enddate", map[string]any{
			"enddate": s.endDate.AddDate(0, 0, 1).Format(isoDate) + " " + dayCutoff,
		}))
	}

	if s.geocodedOnly {
		predicates = append(predicates, expr("l.latitude IS NOT NULL AND l.longitude IS NOT NULL"))
	}

	if s.attendance {
		predicates = append(predicates, bind("a.individual = :uid", map[string]any{"uid": s.viewerID}))
	}

	if len(predicates) == 0 {
		// keep the clause present so the query shape stays uniform
		return expr("WHERE 1")
	}
	grouped := andGroup(predicates)
	grouped.text = "WHERE " + grouped.text
	return grouped
}

func (s Spec) buildHaving() (clause, bool) {
	var predicates []clause

	if s.distance != nil {
		predicates = append(predicates, bind("distance < :rad", map[string]any{
			"rad": s.distance.RadiusMiles,
		}))
	}

	if s.keywords != nil {
		// any keyword matching any of the four fields matches the event:
		// the terms are OR'd together, not required simultaneously
		terms := clause{args: map[string]any{}}
		for i, keyword := range s.keywords {
			name := "keyword" + strconv.Itoa(i)
			if i > 0 {
				terms.text += " OR "
			}
			terms.text += fmt.Sprintf("organization_name RLIKE :%[1]s OR e.name RLIKE :%[1]s OR categories RLIKE :%[1]s OR e.description RLIKE :%[1]s", name)
			terms.args[name] = keyword
		}
		predicates = append(predicates, terms)
	}

	if len(predicates) == 0 {
		return clause{}, false
	}
	grouped := andGroup(predicates)
	grouped.text = "HAVING " + grouped.text
	return grouped, true
}
