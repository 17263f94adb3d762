package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

// 修订记录只能在状态转移的事务内追加，没有独立的写入口
func insertRevision(ctx context.Context, tx *sql.Tx, revision *domain.RevisionEntry) error {
	query := `
		INSERT INTO shift_revisions (shift_id, field_name, old_value, new_value, changed_by, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, changed_at
	`

	args := []any{
		revision.ShiftID,
		revision.FieldName,
		revision.OldValue,
		revision.NewValue,
		revision.ChangedBy,
		revision.Reason,
	}
	return tx.QueryRowContext(ctx, query, args...).Scan(&revision.ID, &revision.ChangedAt)
}

func (r *Repository) GetRevisionsByShiftID(shiftID int64) ([]*domain.RevisionEntry, error) {
	query := `
		SELECT id, shift_id, field_name, old_value, new_value, changed_by, reason, changed_at
		FROM shift_revisions
		WHERE shift_id = $1
		ORDER BY changed_at, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, storageError("get_revisions", err)
	}
	defer rows.Close()

	revisions := make([]*domain.RevisionEntry, 0)
	for rows.Next() {
		revision := &domain.RevisionEntry{}
		dst := []any{&revision.ID, &revision.ShiftID, &revision.FieldName, &revision.OldValue, &revision.NewValue, &revision.ChangedBy, &revision.Reason, &revision.ChangedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, storageError("get_revisions", err)
		}
		revisions = append(revisions, revision)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("get_revisions", err)
	}

	return revisions, nil
}
