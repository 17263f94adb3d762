package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/repository"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/seed"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var workerID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机员工, 2: 为指定员工插入随机偏好, 3: 插入演示门店数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&workerID, "worker-id", 0, "随机插入偏好的员工 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的员工数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				worker, err := utils.GenerateRandomWorker(cfg.Seed.Worker.Password, cfg.Seed.Worker.EmailDomain)
				if err != nil {
					slog.Error("无法生成随机员工", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateWorker(worker); err != nil {
					slog.Error("无法插入员工", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入员工成功", slog.Int("count", n-cnt))
		}
	case 2:
		if workerID <= 0 {
			slog.Error("请输入合法的员工 ID")
			return
		}

		worker, err := repo.GetWorkerByID(workerID)
		if err != nil {
			slog.Error("无法获取员工", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, pref := range utils.GenerateRandomPreferences(worker.ID, cfg.Shift.LookaheadDays) {
			if err := repo.CreatePreferenceEntry(pref); err != nil {
				slog.Error("无法插入偏好", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入偏好成功", slog.Int("count", cnt))
	case 3:
		seed.SeedDemoStore(cfg, repo)
	default:
		slog.Error("指定的操作非法")
	}
}
