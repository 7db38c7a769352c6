package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"

	"github.com/google/uuid"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertActivity(ctx context.Context, db execer, at time.Time, params store.ActivityParams) error {
	var details sql.NullString
	if params.Details != nil {
		encoded, err := json.Marshal(params.Details)
		if err != nil {
			return fmt.Errorf("unable to encode activity details: %w", err)
		}
		details = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err := db.ExecContext(ctx, queryInsertActivity, uuid.New().String(), params.OrganizationId,
		nullString(params.UserId), params.Action, params.Entity, nullString(params.EntityId), details,
		nullString(params.IpAddress), nullString(params.UserAgent), at)
	if err != nil {
		return fmt.Errorf("unable to insert activity: %w", err)
	}
	return nil
}

func (s *Service) LogActivity(ctx context.Context, params store.ActivityParams) error {
	return insertActivity(ctx, s.db, s.timestamp(), params)
}

func (s *Service) ListActivity(ctx context.Context, organizationId string, limit int) ([]models.ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryListActivity, organizationId, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query activity: %w", err)
	}
	defer closeRows(rows)

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.Id, &e.OrganizationId, &e.UserId, &e.Action, &e.Entity, &e.EntityId,
			&e.Details, &e.IpAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan activity row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}
