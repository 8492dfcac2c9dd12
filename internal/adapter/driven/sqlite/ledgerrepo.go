package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/akulikov/jirawatch/internal/domain/model"
	"github.com/akulikov/jirawatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LedgerStore = (*LedgerRepo)(nil)

// LedgerRepo is the SQLite implementation of the LedgerStore port. Dedup is
// enforced by the UNIQUE(issue_key, kind, day) constraint, not by a
// pre-check: the insert either lands or hits the conflict.
type LedgerRepo struct {
	db *DB
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// TryRecord inserts the record, returning false when a record for the same
// (issue, kind, day) already exists.
func (r *LedgerRepo) TryRecord(ctx context.Context, rec model.NotificationRecord) (bool, error) {
	const query = `
		INSERT INTO notification_ledger (issue_key, kind, day, project_key, channel_id, payload_summary)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(issue_key, kind, day) DO NOTHING`

	res, err := r.db.Writer.ExecContext(ctx, query,
		rec.IssueKey, string(rec.Kind), rec.Day.Format(dayFormat),
		rec.ProjectKey, rec.ChannelID, rec.PayloadSummary,
	)
	if err != nil {
		return false, fmt.Errorf("record notification %s/%s: %w", rec.IssueKey, rec.Kind, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for %s/%s: %w", rec.IssueKey, rec.Kind, err)
	}
	return n > 0, nil
}

// ListByDay returns all records written for the given calendar day.
func (r *LedgerRepo) ListByDay(ctx context.Context, day time.Time) ([]model.NotificationRecord, error) {
	const query = `
		SELECT id, issue_key, kind, day, project_key, channel_id, payload_summary, created_at
		FROM notification_ledger
		WHERE day = ?
		ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, day.Format(dayFormat))
	if err != nil {
		return nil, fmt.Errorf("list ledger for %s: %w", day.Format(dayFormat), err)
	}
	defer rows.Close()

	var records []model.NotificationRecord
	for rows.Next() {
		var (
			rec       model.NotificationRecord
			kind      string
			recDay    string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.IssueKey, &kind, &recDay, &rec.ProjectKey, &rec.ChannelID, &rec.PayloadSummary, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}

		rec.Kind = model.ViolationKind(kind)
		rec.Day, err = parseDay(recDay)
		if err != nil {
			return nil, fmt.Errorf("parse day for record %d: %w", rec.ID, err)
		}
		rec.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for record %d: %w", rec.ID, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger records: %w", err)
	}

	return records, nil
}
