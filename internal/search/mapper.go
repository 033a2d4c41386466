package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/citypulse/events-api/internal/entity"
)

// Row is the raw scan buffer for one result row. Its layout follows the
// composed SELECT exactly; ScanTargets must be given the same Columns the
// composer used.
type Row struct {
	Name             string
	ID               int64
	Description      string
	DescriptionShort string
	DtStart          time.Time
	DtEnd            time.Time
	ImageURL         sql.NullString
	Categories       sql.NullString

	OrganizationName sql.NullString
	OrganizationURL  sql.NullString

	Address   sql.NullString
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	Distance  sql.NullFloat64

	Individual sql.NullInt64
}

// ScanTargets returns scan destinations in projection order: the fixed
// columns, then organization, location, distance and attendance groups as
// toggled.
func (r *Row) ScanTargets(cols Columns) []any {
	targets := []any{
		&r.Name, &r.ID, &r.Description, &r.DescriptionShort,
		&r.DtStart, &r.DtEnd, &r.ImageURL, &r.Categories,
	}
	if cols.Organization {
		targets = append(targets, &r.OrganizationName, &r.OrganizationURL)
	}
	if cols.Location {
		targets = append(targets, &r.Address, &r.Latitude, &r.Longitude)
		if cols.Distance {
			targets = append(targets, &r.Distance)
		}
	}
	if cols.Attendance {
		targets = append(targets, &r.Individual)
	}
	return targets
}

// Mapper assembles EventRecords from scanned rows, applying the spec's
// timezone and including only the optional field groups whose projection
// toggles were set. It is built from the same spec the composer consumed.
type Mapper struct {
	spec Spec
	loc  *time.Location
}

func NewMapper(spec Spec) (*Mapper, error) {
	loc, err := time.LoadLocation(spec.timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownTimezone, spec.timezone)
	}
	return &Mapper{spec: spec, loc: loc}, nil
}

func (m *Mapper) Record(row *Row) entity.EventRecord {
	record := entity.EventRecord{
		ID:               row.ID,
		Name:             row.Name,
		DescriptionShort: row.DescriptionShort,
		Description:      row.Description,
		// stored as naive UTC, presented in the requested zone
		StartAt: row.DtStart.UTC().In(m.loc),
		EndAt:   row.DtEnd.UTC().In(m.loc),
	}

	if row.ImageURL.Valid {
		record.ImageURL = &row.ImageURL.String
	}

	if row.Categories.Valid && row.Categories.String != "" {
		record.Categories = strings.Split(row.Categories.String, ",")
	}

	if m.spec.queryAttendance {
		attending := row.Individual.Valid
		record.Attending = &attending
	}

	if m.spec.queryLocation {
		if row.Address.Valid {
			record.Address = &row.Address.String
		}
		if row.Latitude.Valid {
			record.Lat = &row.Latitude.Float64
		}
		if row.Longitude.Valid {
			record.Long = &row.Longitude.Float64
		}
	}

	if m.spec.queryOrganization {
		if row.OrganizationName.Valid {
			record.OrgName = &row.OrganizationName.String
		}
		if row.OrganizationURL.Valid {
			record.OrgURL = &row.OrganizationURL.String
		}
		fanCount := 0
		record.OrgFanCount = &fanCount
	}

	return record
}
