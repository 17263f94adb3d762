package repository

import (
	"context"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

func (r *Repository) GetWorkerByID(id int64) (*domain.Worker, error) {
	query := `
		SELECT username, password_hash, full_name, email, role, skill_level, is_active, created_at, version
		FROM workers WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	worker := &domain.Worker{
		ID: id,
	}

	dst := []any{&worker.Username, &worker.PasswordHash, &worker.FullName, &worker.Email, &worker.Role, &worker.SkillLevel, &worker.IsActive, &worker.CreatedAt, &worker.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, storageError("get_worker_by_id", err)
	}

	return worker, nil
}

func (r *Repository) GetWorkerByUsername(username string) (*domain.Worker, error) {
	query := `
		SELECT id, password_hash, full_name, email, role, skill_level, is_active, created_at, version
		FROM workers WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	worker := &domain.Worker{
		Username: username,
	}

	dst := []any{&worker.ID, &worker.PasswordHash, &worker.FullName, &worker.Email, &worker.Role, &worker.SkillLevel, &worker.IsActive, &worker.CreatedAt, &worker.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, storageError("get_worker_by_username", err)
	}

	return worker, nil
}

func (r *Repository) GetAllWorkers() ([]*domain.Worker, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, skill_level, is_active, created_at, version FROM workers
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, storageError("get_all_workers", err)
	}
	defer rows.Close()

	workers := make([]*domain.Worker, 0)
	for rows.Next() {
		worker := &domain.Worker{}
		dst := []any{&worker.ID, &worker.Username, &worker.PasswordHash, &worker.FullName, &worker.Email, &worker.Role, &worker.SkillLevel, &worker.IsActive, &worker.CreatedAt, &worker.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, storageError("get_all_workers", err)
		}
		workers = append(workers, worker)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("get_all_workers", err)
	}

	return workers, nil
}

func (r *Repository) CreateWorker(worker *domain.Worker) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO workers (username, password_hash, full_name, email, role, skill_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, version
	`

	args := []any{worker.Username, worker.PasswordHash, worker.FullName, worker.Email, worker.Role, worker.SkillLevel}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&worker.ID, &worker.IsActive, &worker.CreatedAt, &worker.Version); err != nil {
		return storageError("create_worker", err)
	}

	return nil
}

func (r *Repository) UpdateWorker(worker *domain.Worker) error {
	query := `
		UPDATE workers
		SET
			password_hash = $1,
			full_name = $2,
			email = $3,
			role = $4,
			skill_level = $5,
			is_active = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING username, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{worker.PasswordHash, worker.FullName, worker.Email, worker.Role, worker.SkillLevel, worker.IsActive, worker.ID, worker.Version}
	dst := []any{&worker.Username, &worker.CreatedAt, &worker.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return storageError("update_worker", err)
	}

	return nil
}

func (r *Repository) DeleteWorker(id int64) error {
	query := `
		DELETE FROM workers WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return storageError("delete_worker", err)
	}

	return nil
}
