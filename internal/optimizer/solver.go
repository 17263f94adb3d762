package optimizer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

// greedySolver 按确定性的贪心策略求解
// 时段按 (日期, 开始时间, 结束时间) 顺序处理，候选人按
// (偏好权重降序, 已被使用的员工优先, 员工 ID 升序) 排序，
// 任何违反硬约束的 (员工, 时段) 配对都会被跳过而不是被容忍
type greedySolver struct{}

func NewGreedySolver() Solver {
	return &greedySolver{}
}

// 求解过程中每个员工的累计排班状态，用于增量的硬约束检查
type workerState struct {
	dailyHours    map[string]float64
	weeklyHours   map[string]float64
	assignedDates map[string]bool
	intervals     []shiftInterval
}

type shiftInterval struct {
	start time.Time
	end   time.Time
}

type slotCandidate struct {
	workerID   int64
	preference *domain.PreferenceEntry
	weight     int32
}

func (s *greedySolver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	slots := make([]*domain.ShiftSlot, len(p.Slots))
	copy(slots, p.Slots)
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].EndTime < slots[j].EndTime
	})

	activeWorkers := make(map[int64]bool)
	for _, w := range p.Workers {
		if w.IsActive {
			activeWorkers[w.ID] = true
		}
	}

	states := make(map[int64]*workerState)
	usedWorkers := make(map[int64]bool)

	solution := &Solution{
		Assignments: make([]*SolvedAssignment, 0),
		Shortfalls:  make([]Shortfall, 0),
	}
	infeasible := []string{}

	for _, slot := range slots {
		// 求解时间预算用完后按不可行处理，绝不输出检查到一半的结果
		if ctx.Err() != nil {
			return nil, &domain.InfeasibleScheduleError{ViolatedConstraints: []string{"solve_time_budget_exceeded"}}
		}

		candidates := s.collectCandidates(p, slot, activeWorkers, usedWorkers)

		assigned := int32(0)
		for _, candidate := range candidates {
			if assigned >= slot.MaxHeadcount {
				break
			}

			state := states[candidate.workerID]
			if state == nil {
				state = &workerState{
					dailyHours:    make(map[string]float64),
					weeklyHours:   make(map[string]float64),
					assignedDates: make(map[string]bool),
				}
				states[candidate.workerID] = state
			}

			if !s.feasible(state, slot, p.Constraints) {
				continue
			}

			s.apply(state, slot)
			usedWorkers[candidate.workerID] = true
			assigned++

			solution.Assignments = append(solution.Assignments, &SolvedAssignment{
				WorkerID:           candidate.workerID,
				PreferenceID:       candidate.preference.ID,
				Date:               slot.Date,
				StartTime:          slot.StartTime,
				EndTime:            slot.EndTime,
				RequiredSkillLevel: slot.RequiredSkillLevel,
				PredictedTraffic:   slot.PredictedTraffic,
			})
		}

		if assigned < slot.MinHeadcount {
			if p.Constraints.HardMinHeadcount {
				infeasible = append(infeasible, fmt.Sprintf("min_headcount:%s %s-%s", dateKey(slot.Date), slot.StartTime, slot.EndTime))
				continue
			}
			solution.Shortfalls = append(solution.Shortfalls, Shortfall{
				Date:      slot.Date,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Required:  slot.MinHeadcount,
				Assigned:  assigned,
			})
		}
	}

	if len(infeasible) > 0 {
		return nil, &domain.InfeasibleScheduleError{ViolatedConstraints: infeasible}
	}

	return solution, nil
}

// collectCandidates 找出可以承担该时段的候选人并按确定性规则排序
// 同一个员工对同一天可能有多条偏好，只取权重最高的一条
func (s *greedySolver) collectCandidates(p *Problem, slot *domain.ShiftSlot, activeWorkers map[int64]bool, usedWorkers map[int64]bool) []slotCandidate {
	best := make(map[int64]*domain.PreferenceEntry)

	for _, pref := range p.Preferences {
		if pref.Status != domain.PreferencePending {
			continue
		}
		if !activeWorkers[pref.WorkerID] {
			continue
		}
		if !pref.Date.Equal(slot.Date) {
			continue
		}
		if !covers(pref, slot) {
			continue
		}

		current, exists := best[pref.WorkerID]
		if !exists || pref.Weight() > current.Weight() || (pref.Weight() == current.Weight() && pref.ID < current.ID) {
			best[pref.WorkerID] = pref
		}
	}

	candidates := make([]slotCandidate, 0, len(best))
	for workerID, pref := range best {
		candidates = append(candidates, slotCandidate{
			workerID:   workerID,
			preference: pref,
			weight:     pref.Weight(),
		})
	}

	// 权重相同的情况下优先复用已经排进班表的员工（最小化用人数），再按 ID 升序保证确定性
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		if usedWorkers[candidates[i].workerID] != usedWorkers[candidates[j].workerID] {
			return usedWorkers[candidates[i].workerID]
		}
		return candidates[i].workerID < candidates[j].workerID
	})

	return candidates
}

// 偏好窗口必须完整覆盖时段
func covers(pref *domain.PreferenceEntry, slot *domain.ShiftSlot) bool {
	return pref.StartTime <= slot.StartTime && pref.EndTime >= slot.EndTime
}

func (s *greedySolver) feasible(state *workerState, slot *domain.ShiftSlot, constraints Constraints) bool {
	day := dateKey(slot.Date)
	week := weekKey(slot.Date)
	duration := domain.IntervalHours(slot.StartTime, slot.EndTime)

	// 一人一天最多一个班次
	if state.assignedDates[day] {
		return false
	}
	if state.dailyHours[day]+duration > constraints.MaxHoursPerDay {
		return false
	}
	if state.weeklyHours[week]+duration > constraints.MaxHoursPerWeek {
		return false
	}

	start := absoluteStart(slot.Date, slot.StartTime)
	end := absoluteEnd(slot.Date, slot.StartTime, slot.EndTime)
	for _, interval := range state.intervals {
		var gap float64
		switch {
		case !start.Before(interval.end):
			gap = start.Sub(interval.end).Hours()
		case !interval.start.Before(end):
			gap = interval.start.Sub(end).Hours()
		default:
			return false // 时间上重叠
		}
		if gap < constraints.MinRestHours {
			return false
		}
	}

	// 加入这一天后不能超出最大连续工作天数
	if s.consecutiveWith(state, slot.Date) > constraints.MaxConsecutiveDays {
		return false
	}

	return true
}

func (s *greedySolver) consecutiveWith(state *workerState, date time.Time) int {
	streak := 1
	for d := date.AddDate(0, 0, -1); state.assignedDates[dateKey(d)]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	for d := date.AddDate(0, 0, 1); state.assignedDates[dateKey(d)]; d = d.AddDate(0, 0, 1) {
		streak++
	}
	return streak
}

func (s *greedySolver) apply(state *workerState, slot *domain.ShiftSlot) {
	day := dateKey(slot.Date)
	duration := domain.IntervalHours(slot.StartTime, slot.EndTime)

	state.assignedDates[day] = true
	state.dailyHours[day] += duration
	state.weeklyHours[weekKey(slot.Date)] += duration
	state.intervals = append(state.intervals, shiftInterval{
		start: absoluteStart(slot.Date, slot.StartTime),
		end:   absoluteEnd(slot.Date, slot.StartTime, slot.EndTime),
	})
}
