package optimizer

import (
	"context"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

// Constraints 是求解时生效的硬约束，全部来自配置
type Constraints struct {
	MaxHoursPerDay     float64
	MaxHoursPerWeek    float64
	MinRestHours       float64
	MaxConsecutiveDays int
	HardMinHeadcount   bool // 为 true 时人数不足直接判不可行，否则只记录缺口
}

// Problem 是一次求解的完整输入
type Problem struct {
	StartDate   time.Time
	EndDate     time.Time
	Slots       []*domain.ShiftSlot
	Preferences []*domain.PreferenceEntry
	Workers     []*domain.Worker
	Constraints Constraints
}

// SolvedAssignment 是求解器给出的一条排班决策，尚未带上 group 和状态
type SolvedAssignment struct {
	WorkerID           int64
	PreferenceID       int64
	Date               time.Time
	StartTime          string
	EndTime            string
	RequiredSkillLevel *float64
	PredictedTraffic   *int32
}

// Shortfall 记录某个时段的人数缺口
type Shortfall struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Required  int32     `json:"required"`
	Assigned  int32     `json:"assigned"`
}

type Solution struct {
	Assignments []*SolvedAssignment
	Shortfalls  []Shortfall
}

// Solver 抽象了具体的求解算法，替换实现不影响工作流逻辑
// 相同输入必须产生相同输出，这是可测试性和重新生成时可复现性的前提
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
