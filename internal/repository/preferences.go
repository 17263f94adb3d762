package repository

import (
	"context"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

func (r *Repository) CreatePreferenceEntry(pref *domain.PreferenceEntry) error {
	query := `
		INSERT INTO preference_entries (worker_id, date, start_time, end_time, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{pref.WorkerID, pref.Date, pref.StartTime, pref.EndTime, pref.Priority}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&pref.ID, &pref.Status, &pref.CreatedAt, &pref.Version); err != nil {
		return storageError("create_preference", err)
	}

	return nil
}

func (r *Repository) GetPendingPreferencesByDateRange(startDate time.Time, endDate time.Time) ([]*domain.PreferenceEntry, error) {
	query := `
		SELECT id, worker_id, date, start_time, end_time, priority, status, created_at, version
		FROM preference_entries
		WHERE status = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, domain.PreferencePending, startDate, endDate)
	if err != nil {
		return nil, storageError("get_pending_preferences", err)
	}
	defer rows.Close()

	prefs := make([]*domain.PreferenceEntry, 0)
	for rows.Next() {
		pref := &domain.PreferenceEntry{}
		dst := []any{&pref.ID, &pref.WorkerID, &pref.Date, &pref.StartTime, &pref.EndTime, &pref.Priority, &pref.Status, &pref.CreatedAt, &pref.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, storageError("get_pending_preferences", err)
		}
		prefs = append(prefs, pref)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("get_pending_preferences", err)
	}

	return prefs, nil
}

func (r *Repository) GetPreferencesByWorkerID(workerID int64, startDate time.Time, endDate time.Time) ([]*domain.PreferenceEntry, error) {
	query := `
		SELECT id, worker_id, date, start_time, end_time, priority, status, created_at, version
		FROM preference_entries
		WHERE worker_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, workerID, startDate, endDate)
	if err != nil {
		return nil, storageError("get_preferences_by_worker", err)
	}
	defer rows.Close()

	prefs := make([]*domain.PreferenceEntry, 0)
	for rows.Next() {
		pref := &domain.PreferenceEntry{}
		dst := []any{&pref.ID, &pref.WorkerID, &pref.Date, &pref.StartTime, &pref.EndTime, &pref.Priority, &pref.Status, &pref.CreatedAt, &pref.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, storageError("get_preferences_by_worker", err)
		}
		prefs = append(prefs, pref)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("get_preferences_by_worker", err)
	}

	return prefs, nil
}
