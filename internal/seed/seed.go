package seed

import (
	"database/sql"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/repository"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/utils"
)

// 演示门店的固定班底，方便前端和测试环境直接登录
var demoRoster = []struct {
	Username   string
	FullName   string
	Role       domain.Role
	SkillLevel float64
}{
	{"dianzhang", "林晓梅", domain.RoleManager, 5.0},
	{"fudian1", "陈志强", domain.RoleSubManager, 4.5},
	{"fudian2", "王丽华", domain.RoleSubManager, 4.0},
	{"pinggu1", "张建国", domain.RoleEvaluator, 3.5},
	{"yuangong1", "李小芳", domain.RoleStaff, 3.0},
	{"yuangong2", "刘洋", domain.RoleStaff, 2.5},
	{"yuangong3", "赵敏", domain.RoleStaff, 2.0},
	{"yuangong4", "黄磊", domain.RoleStaff, 2.0},
	{"yuangong5", "周杰", domain.RoleStaff, 1.5},
	{"yuangong6", "吴霞", domain.RoleStaff, 1.0},
}

// SeedDemoStore 插入演示门店的员工和未来两周的随机偏好
func SeedDemoStore(cfg *config.Config, repo *repository.Repository) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.Worker.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("无法生成密码哈希", "error", err)
		return
	}

	workerCnt := 0
	prefCnt := 0

	for _, member := range demoRoster {
		worker, err := repo.GetWorkerByUsername(member.Username)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				skillLevel := member.SkillLevel
				worker = &domain.Worker{
					Username:     member.Username,
					PasswordHash: string(passwordHash),
					FullName:     member.FullName,
					Email:        member.Username + "@" + cfg.Seed.Worker.EmailDomain,
					Role:         member.Role,
					SkillLevel:   &skillLevel,
					IsActive:     true,
				}

				if err := repo.CreateWorker(worker); err != nil {
					slog.Error("插入员工失败", "username", member.Username, "error", err)
					continue
				}
				workerCnt++
			default:
				slog.Error("获取员工失败", "username", member.Username, "error", err)
				continue
			}
		}

		// 店长不参与排班，不需要偏好
		if worker.Role == domain.RoleManager {
			continue
		}

		for _, pref := range utils.GenerateRandomPreferences(worker.ID, cfg.Shift.LookaheadDays) {
			if err := repo.CreatePreferenceEntry(pref); err != nil {
				slog.Error("插入偏好失败", "username", member.Username, "error", err)
				continue
			}
			prefCnt++
		}
	}

	slog.Info("演示数据插入完成", "workers", workerCnt, "preferences", prefCnt)
}
