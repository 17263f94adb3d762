package optimizer

import (
	"context"
	"sort"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
	"github.com/google/uuid"
)

// Optimizer 把求解结果组装成 DRAFT 状态的班次组
// 本身不做任何持久化，落库和偏好消费由存储层在一个事务中完成
type Optimizer struct {
	solver      Solver
	constraints Constraints
}

func New(solver Solver, constraints Constraints) *Optimizer {
	return &Optimizer{
		solver:      solver,
		constraints: constraints,
	}
}

type GenerationResult struct {
	GroupID               string                    `json:"groupID"`
	Assignments           []*domain.ShiftAssignment `json:"assignments"`
	Shortfalls            []Shortfall               `json:"shortfalls"`
	ConsumedPreferenceIDs []int64                   `json:"-"`
}

func (o *Optimizer) Generate(
	ctx context.Context,
	startDate time.Time,
	endDate time.Time,
	slots []*domain.ShiftSlot,
	preferences []*domain.PreferenceEntry,
	workers []*domain.Worker,
	createdBy int64,
) (*GenerationResult, error) {
	if endDate.Before(startDate) {
		return nil, &domain.ValidationError{Field: "dateRange", Reason: "结束日期不能早于开始日期"}
	}

	// 只考虑范围内的 PENDING 偏好
	inRange := make([]*domain.PreferenceEntry, 0, len(preferences))
	for _, pref := range preferences {
		if pref.Status != domain.PreferencePending {
			continue
		}
		if pref.Date.Before(startDate) || pref.Date.After(endDate) {
			continue
		}
		inRange = append(inRange, pref)
	}

	problem := &Problem{
		StartDate:   startDate,
		EndDate:     endDate,
		Slots:       slots,
		Preferences: inRange,
		Workers:     workers,
		Constraints: o.constraints,
	}

	solution, err := o.solver.Solve(ctx, problem)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &GenerationResult{
		GroupID:               uuid.NewString(),
		Assignments:           make([]*domain.ShiftAssignment, 0, len(solution.Assignments)),
		Shortfalls:            solution.Shortfalls,
		ConsumedPreferenceIDs: make([]int64, 0, len(solution.Assignments)),
	}

	for _, solved := range solution.Assignments {
		result.Assignments = append(result.Assignments, &domain.ShiftAssignment{
			GroupID:            result.GroupID,
			WorkerID:           solved.WorkerID,
			Date:               solved.Date,
			StartTime:          solved.StartTime,
			EndTime:            solved.EndTime,
			Status:             domain.ShiftDraft,
			Version:            1,
			RequiredSkillLevel: solved.RequiredSkillLevel,
			PredictedTraffic:   solved.PredictedTraffic,
			CreatedBy:          createdBy,
			CreatedAt:          now,
		})
		result.ConsumedPreferenceIDs = append(result.ConsumedPreferenceIDs, solved.PreferenceID)
	}

	// 输出前再做一次完整的劳动法复核，凡是有违规就整体判不可行
	// 约束名去重后按字典序排列，同样的违规组合总是产生同样的错误
	if violations := NewChecker(o.constraints).CheckAll(result.Assignments); len(violations) > 0 {
		seen := make(map[string]bool)
		names := make([]string, 0, len(violations))
		for _, v := range violations {
			if !seen[v.Kind] {
				seen[v.Kind] = true
				names = append(names, v.Kind)
			}
		}
		sort.Strings(names)
		return nil, &domain.InfeasibleScheduleError{ViolatedConstraints: names}
	}

	return result, nil
}
