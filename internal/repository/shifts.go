package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

// SaveGeneratedShifts 在一个事务中落库一批新生成的班次并消费对应的偏好
// 偏好的占用是互斥的：只要有一条已经不是 PENDING，整个事务回滚
func (r *Repository) SaveGeneratedShifts(assignments []*domain.ShiftAssignment, preferenceIDs []int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return storageError("save_generated_shifts", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(preferenceIDs) > 0 {
		query := `
			UPDATE preference_entries
			SET status = $1, version = version + 1
			WHERE id = ANY($2) AND status = $3
		`

		result, err := tx.ExecContext(ctx, query, domain.PreferenceConsumed, preferenceIDs, domain.PreferencePending)
		if err != nil {
			return storageError("save_generated_shifts", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return storageError("save_generated_shifts", err)
		}
		if affected != int64(len(preferenceIDs)) {
			return ErrPreferenceAlreadyConsumed
		}
	}

	for _, assignment := range assignments {
		query := `
			INSERT INTO shift_assignments (
				group_id,
				worker_id,
				date,
				start_time,
				end_time,
				status,
				version,
				required_skill_level,
				predicted_traffic,
				created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at
		`

		args := []any{
			assignment.GroupID,
			assignment.WorkerID,
			assignment.Date,
			assignment.StartTime,
			assignment.EndTime,
			assignment.Status,
			assignment.Version,
			assignment.RequiredSkillLevel,
			assignment.PredictedTraffic,
			assignment.CreatedBy,
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&assignment.ID, &assignment.CreatedAt); err != nil {
			return storageError("save_generated_shifts", err)
		}
	}

	return storageError("save_generated_shifts", tx.Commit())
}

const shiftColumns = `
	id,
	group_id,
	worker_id,
	date,
	start_time,
	end_time,
	status,
	version,
	required_skill_level,
	predicted_traffic,
	created_by,
	created_at,
	adjusted_by,
	adjusted_at,
	approved_by,
	approved_at,
	published_by,
	published_at,
	rejected_by,
	rejected_at,
	rejection_reason
`

func scanShift(row interface{ Scan(dest ...any) error }, shift *domain.ShiftAssignment) error {
	dst := []any{
		&shift.ID,
		&shift.GroupID,
		&shift.WorkerID,
		&shift.Date,
		&shift.StartTime,
		&shift.EndTime,
		&shift.Status,
		&shift.Version,
		&shift.RequiredSkillLevel,
		&shift.PredictedTraffic,
		&shift.CreatedBy,
		&shift.CreatedAt,
		&shift.AdjustedBy,
		&shift.AdjustedAt,
		&shift.ApprovedBy,
		&shift.ApprovedAt,
		&shift.PublishedBy,
		&shift.PublishedAt,
		&shift.RejectedBy,
		&shift.RejectedAt,
		&shift.RejectionReason,
	}
	return row.Scan(dst...)
}

func (r *Repository) GetShiftByID(id int64) (*domain.ShiftAssignment, error) {
	query := `SELECT ` + shiftColumns + ` FROM shift_assignments WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	shift := &domain.ShiftAssignment{}
	if err := scanShift(r.dbpool.QueryRowContext(ctx, query, id), shift); err != nil {
		return nil, storageError("get_shift_by_id", err)
	}

	return shift, nil
}

func (r *Repository) GetShiftsByGroup(groupID string) ([]*domain.ShiftAssignment, error) {
	query := `SELECT ` + shiftColumns + ` FROM shift_assignments WHERE group_id = $1 ORDER BY date, start_time, id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, storageError("get_shifts_by_group", err)
	}
	defer rows.Close()

	shifts := make([]*domain.ShiftAssignment, 0)
	for rows.Next() {
		shift := &domain.ShiftAssignment{}
		if err := scanShift(rows, shift); err != nil {
			return nil, storageError("get_shifts_by_group", err)
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("get_shifts_by_group", err)
	}

	return shifts, nil
}

func (r *Repository) GetPublishedShiftsByWorker(workerID int64, startDate time.Time, endDate time.Time) ([]*domain.ShiftAssignment, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shift_assignments
		WHERE worker_id = $1 AND status = $2 AND date >= $3 AND date <= $4
		ORDER BY date, start_time
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, workerID, domain.ShiftPublished, startDate, endDate)
	if err != nil {
		return nil, storageError("get_published_shifts", err)
	}
	defer rows.Close()

	shifts := make([]*domain.ShiftAssignment, 0)
	for rows.Next() {
		shift := &domain.ShiftAssignment{}
		if err := scanShift(rows, shift); err != nil {
			return nil, storageError("get_published_shifts", err)
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("get_published_shifts", err)
	}

	return shifts, nil
}

// ApplyShiftTransitions 把一批已校验的状态转移作为一个原子单元写入
// 每条 UPDATE 同时检查版本号和原状态，任何一条被并发修改就整体回滚并返回版本冲突
// 修订记录和状态变更在同一个事务中提交，保证账本的完整性
func (r *Repository) ApplyShiftTransitions(transitions []*domain.ShiftTransition) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return storageError("apply_shift_transitions", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, transition := range transitions {
		shift := transition.Shift

		bump := 0
		if transition.BumpVersion {
			bump = 1
		}

		query := `
			UPDATE shift_assignments
			SET
				worker_id = $1,
				date = $2,
				start_time = $3,
				end_time = $4,
				status = $5,
				version = version + $6,
				adjusted_by = $7,
				adjusted_at = $8,
				approved_by = $9,
				approved_at = $10,
				published_by = $11,
				published_at = $12,
				rejected_by = $13,
				rejected_at = $14,
				rejection_reason = $15
			WHERE id = $16 AND version = $17 AND status = $18
			RETURNING version
		`

		args := []any{
			shift.WorkerID,
			shift.Date,
			shift.StartTime,
			shift.EndTime,
			shift.Status,
			bump,
			shift.AdjustedBy,
			shift.AdjustedAt,
			shift.ApprovedBy,
			shift.ApprovedAt,
			shift.PublishedBy,
			shift.PublishedAt,
			shift.RejectedBy,
			shift.RejectedAt,
			shift.RejectionReason,
			shift.ID,
			transition.ExpectedVersion,
			transition.ExpectedStatus,
		}

		if err := tx.QueryRowContext(ctx, query, args...).Scan(&shift.Version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.versionConflict(ctx, tx, shift.ID, transition.ExpectedVersion)
			}
			return storageError("apply_shift_transitions", err)
		}

		for _, revision := range transition.Revisions {
			if err := insertRevision(ctx, tx, revision); err != nil {
				return storageError("apply_shift_transitions", err)
			}
		}
	}

	return storageError("apply_shift_transitions", tx.Commit())
}

// 区分记录不存在和被并发修改两种情况
func (r *Repository) versionConflict(ctx context.Context, tx *sql.Tx, shiftID int64, expected int32) error {
	var actual int32
	query := `SELECT version FROM shift_assignments WHERE id = $1`
	if err := tx.QueryRowContext(ctx, query, shiftID).Scan(&actual); err != nil {
		return storageError("apply_shift_transitions", err)
	}

	return &domain.VersionConflictError{
		ShiftID:  shiftID,
		Expected: expected,
		Actual:   actual,
	}
}
