package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// SaveSnapshot validates and inserts a snapshot row. The snapshot id is
// derived from (period_type, period_start); saving an already-covered period
// inserts a superseding row rather than updating in place.
func (db *DB) SaveSnapshot(s *Snapshot) (int64, error) {
	if s.PeriodEnd.Before(s.PeriodStart) {
		return 0, fmt.Errorf("%w: period_end %s before period_start %s",
			ErrConstraintViolation, s.PeriodEnd.Format(time.RFC3339), s.PeriodStart.Format(time.RFC3339))
	}
	if s.PeriodType == "" {
		return 0, fmt.Errorf("%w: empty period_type", ErrConstraintViolation)
	}

	s.SnapshotID = SnapshotKey(s.PeriodType, s.PeriodStart)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	volumes, err := json.Marshal(orEmptyInt(s.TopicVolumes))
	if err != nil {
		return 0, fmt.Errorf("encoding topic volumes: %w", err)
	}
	sentiments, err := json.Marshal(orEmptyString(s.TopicSentiments))
	if err != nil {
		return 0, fmt.Errorf("encoding topic sentiments: %w", err)
	}
	resolution, err := json.Marshal(orEmptyInt(s.ResolutionBreakdown))
	if err != nil {
		return 0, fmt.Errorf("encoding resolution breakdown: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.Exec(
		`INSERT INTO snapshots
		(snapshot_id, period_type, period_start, period_end, total_conversations,
		 topic_volumes, topic_sentiments, resolution_breakdown, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SnapshotID, string(s.PeriodType),
		s.PeriodStart.UTC().Format(time.RFC3339), s.PeriodEnd.UTC().Format(time.RFC3339),
		s.TotalConversations, string(volumes), string(sentiments), string(resolution),
		s.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// SaveSnapshotWithRetry retries the snapshot write with exponential backoff.
// Persistence is required for future comparisons, so transient failures are
// retried; constraint violations are permanent and rejected immediately.
func (db *DB) SaveSnapshotWithRetry(s *Snapshot, maxRetries int, interval time.Duration) (int64, error) {
	var id int64
	attempts := 0

	op := func() error {
		attempts++
		var err error
		id, err = db.SaveSnapshot(s)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrConstraintViolation) || attempts > maxRetries {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxElapsedTime = time.Duration(maxRetries+1) * 4 * interval

	if err := backoff.Retry(op, b); err != nil {
		return 0, err
	}
	return id, nil
}

const snapshotColumns = `id, snapshot_id, period_type, period_start, period_end,
	total_conversations, topic_volumes, topic_sentiments, resolution_breakdown, created_at`

// GetLatestForPeriod returns the canonical (most recently created) snapshot
// for a given cadence and period start, or nil if none exists.
func (db *DB) GetLatestForPeriod(periodType PeriodType, periodStart time.Time) (*Snapshot, error) {
	row := db.conn.QueryRow(
		`SELECT `+snapshotColumns+` FROM snapshots
		 WHERE period_type = ? AND period_start = ?
		 ORDER BY created_at DESC LIMIT 1`,
		string(periodType), periodStart.UTC().Format(time.RFC3339),
	)
	return scanSnapshot(row)
}

// GetPriorSnapshot returns the canonical snapshot of the same cadence whose
// period starts strictly before the given start, or nil if no history
// exists. Callers treat nil as the first-class "no baseline" outcome.
func (db *DB) GetPriorSnapshot(periodType PeriodType, before time.Time) (*Snapshot, error) {
	row := db.conn.QueryRow(
		`SELECT `+snapshotColumns+` FROM snapshots
		 WHERE period_type = ? AND period_start < ?
		 ORDER BY period_start DESC, created_at DESC LIMIT 1`,
		string(periodType), before.UTC().Format(time.RFC3339),
	)
	return scanSnapshot(row)
}

// ListSnapshots returns up to limit canonical snapshots of a cadence, newest
// period first. Superseded rows for the same period are excluded.
func (db *DB) ListSnapshots(periodType PeriodType, limit int) ([]Snapshot, error) {
	rows, err := db.conn.Query(
		`SELECT `+snapshotColumns+` FROM snapshots s
		 WHERE period_type = ?
		   AND created_at = (
			 SELECT MAX(created_at) FROM snapshots
			 WHERE period_type = s.period_type AND period_start = s.period_start
		   )
		 ORDER BY period_start DESC LIMIT ?`,
		string(periodType), limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	s, err := scanSnapshotRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func scanSnapshotRow(row rowScanner) (*Snapshot, error) {
	var s Snapshot
	var periodType, start, end, volumes, sentiments, resolution, createdAt string

	if err := row.Scan(&s.ID, &s.SnapshotID, &periodType, &start, &end,
		&s.TotalConversations, &volumes, &sentiments, &resolution, &createdAt); err != nil {
		return nil, err
	}

	s.PeriodType = PeriodType(periodType)
	var err error
	if s.PeriodStart, err = time.Parse(time.RFC3339, start); err != nil {
		return nil, fmt.Errorf("decoding period start: %w", err)
	}
	if s.PeriodEnd, err = time.Parse(time.RFC3339, end); err != nil {
		return nil, fmt.Errorf("decoding period end: %w", err)
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decoding created_at: %w", err)
	}

	if err := json.Unmarshal([]byte(volumes), &s.TopicVolumes); err != nil {
		return nil, fmt.Errorf("decoding topic volumes: %w", err)
	}
	if err := json.Unmarshal([]byte(sentiments), &s.TopicSentiments); err != nil {
		return nil, fmt.Errorf("decoding topic sentiments: %w", err)
	}
	if err := json.Unmarshal([]byte(resolution), &s.ResolutionBreakdown); err != nil {
		return nil, fmt.Errorf("decoding resolution breakdown: %w", err)
	}

	return &s, nil
}

func orEmptyInt(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func orEmptyString(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
