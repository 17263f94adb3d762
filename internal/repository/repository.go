package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

// ErrPreferenceAlreadyConsumed 表示要消费的偏好已经被另一次排班生成占用
var ErrPreferenceAlreadyConsumed = errors.New("部分偏好已被其他排班生成消费")

// storageError 是所有仓库方法出错时的统一出口
// 业务性的结果（未命中、约束冲突）原样返回给调用方判断，
// 其余一律包成 StorageUnavailableError，表示可以重试的基础设施故障
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	pgErr := &pgconn.PgError{}
	if errors.As(err, &pgErr) {
		return err
	}
	return &domain.StorageUnavailableError{Op: op, Err: err}
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
