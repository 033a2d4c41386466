package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/citypulse/events-api/internal/entity"
	"github.com/citypulse/events-api/internal/search"
)

type eventSearchRepository struct {
	db *sql.DB
}

func NewEventSearchRepository(db *sql.DB) EventSearchRepository {
	return &eventSearchRepository{db: db}
}

// Search executes the modern-schema query. Any connection, syntax or scan
// error aborts the whole request: this is read-only reporting traffic, and
// a partial result would be worse than an explicit failure.
func (r *eventSearchRepository) Search(ctx context.Context, spec search.Spec, offset, limit int) (*entity.PageResult, error) {
	query, args, err := search.Compose(spec, offset, limit)
	if err != nil {
		return nil, err
	}

	mapper, err := search.NewMapper(spec)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	cols := spec.Columns()
	var records []entity.EventRecord
	for rows.Next() {
		// the LIMIT already caps the cursor at limit+1 rows; the counter
		// guards the page shape even if the statement is ever changed
		if len(records) == limit+1 {
			break
		}
		var row search.Row
		if err := rows.Scan(row.ScanTargets(cols)...); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, mapper.Record(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return search.NewPage(records, limit), nil
}

// FetchLegacy executes the single-record query against the pre-migration
// schema. A missing row is reported as entity.ErrEventNotFound.
func (r *eventSearchRepository) FetchLegacy(ctx context.Context, spec search.Spec) (*entity.EventRecord, error) {
	query, args, err := search.ComposeLegacy(spec)
	if err != nil {
		return nil, err
	}

	mapper, err := search.NewMapper(spec)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy event: %w", err)
	}
	defer rows.Close()

	cols := spec.LegacyColumns()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate legacy event: %w", err)
		}
		return nil, entity.ErrEventNotFound
	}

	var row search.Row
	if err := rows.Scan(row.ScanTargets(cols)...); err != nil {
		return nil, fmt.Errorf("failed to scan legacy event: %w", err)
	}

	record := mapper.Record(&row)
	return &record, nil
}
