package optimizer

import (
	"fmt"
	"sort"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

const (
	ViolationDailyHours      = "daily_hours_exceeded"
	ViolationWeeklyHours     = "weekly_hours_exceeded"
	ViolationMinRest         = "min_rest_violated"
	ViolationConsecutiveDays = "consecutive_days_exceeded"
)

type Violation struct {
	WorkerID int64  `json:"workerID"`
	Kind     string `json:"kind"`
	Details  string `json:"details"`
}

// Checker 对一组班次做劳动法校验，排班器在输出前用它做最终复核
type Checker struct {
	constraints Constraints
}

func NewChecker(constraints Constraints) *Checker {
	return &Checker{constraints: constraints}
}

func (c *Checker) CheckAll(assignments []*domain.ShiftAssignment) []Violation {
	byWorker := make(map[int64][]*domain.ShiftAssignment)
	workerIDs := make([]int64, 0)
	for _, a := range assignments {
		if _, exists := byWorker[a.WorkerID]; !exists {
			workerIDs = append(workerIDs, a.WorkerID)
		}
		byWorker[a.WorkerID] = append(byWorker[a.WorkerID], a)
	}
	sort.Slice(workerIDs, func(i, j int) bool { return workerIDs[i] < workerIDs[j] })

	violations := []Violation{}
	for _, workerID := range workerIDs {
		shifts := byWorker[workerID]
		sort.Slice(shifts, func(i, j int) bool {
			if !shifts[i].Date.Equal(shifts[j].Date) {
				return shifts[i].Date.Before(shifts[j].Date)
			}
			return shifts[i].StartTime < shifts[j].StartTime
		})

		violations = append(violations, c.checkDailyHours(workerID, shifts)...)
		violations = append(violations, c.checkWeeklyHours(workerID, shifts)...)
		violations = append(violations, c.checkRest(workerID, shifts)...)
		violations = append(violations, c.checkConsecutiveDays(workerID, shifts)...)
	}

	return violations
}

func (c *Checker) checkDailyHours(workerID int64, shifts []*domain.ShiftAssignment) []Violation {
	dailyHours := make(map[string]float64)
	for _, s := range shifts {
		dailyHours[dateKey(s.Date)] += s.DurationHours()
	}

	violations := []Violation{}
	for day, hours := range dailyHours {
		if hours > c.constraints.MaxHoursPerDay {
			violations = append(violations, Violation{
				WorkerID: workerID,
				Kind:     ViolationDailyHours,
				Details:  fmt.Sprintf("%s: %.1f 小时（上限 %.1f 小时）", day, hours, c.constraints.MaxHoursPerDay),
			})
		}
	}
	return violations
}

func (c *Checker) checkWeeklyHours(workerID int64, shifts []*domain.ShiftAssignment) []Violation {
	weeklyHours := make(map[string]float64)
	for _, s := range shifts {
		weeklyHours[weekKey(s.Date)] += s.DurationHours()
	}

	violations := []Violation{}
	for week, hours := range weeklyHours {
		if hours > c.constraints.MaxHoursPerWeek {
			violations = append(violations, Violation{
				WorkerID: workerID,
				Kind:     ViolationWeeklyHours,
				Details:  fmt.Sprintf("%s: %.1f 小时（上限 %.1f 小时）", week, hours, c.constraints.MaxHoursPerWeek),
			})
		}
	}
	return violations
}

// 相邻两个班次之间的间隔必须不少于最低休息时间
func (c *Checker) checkRest(workerID int64, shifts []*domain.ShiftAssignment) []Violation {
	violations := []Violation{}
	for i := 1; i < len(shifts); i++ {
		prevEnd := absoluteEnd(shifts[i-1].Date, shifts[i-1].StartTime, shifts[i-1].EndTime)
		nextStart := absoluteStart(shifts[i].Date, shifts[i].StartTime)

		gap := nextStart.Sub(prevEnd).Hours()
		if gap < c.constraints.MinRestHours {
			violations = append(violations, Violation{
				WorkerID: workerID,
				Kind:     ViolationMinRest,
				Details:  fmt.Sprintf("%s 与 %s 的班次间隔 %.1f 小时（至少 %.1f 小时）", dateKey(shifts[i-1].Date), dateKey(shifts[i].Date), gap, c.constraints.MinRestHours),
			})
		}
	}
	return violations
}

func (c *Checker) checkConsecutiveDays(workerID int64, shifts []*domain.ShiftAssignment) []Violation {
	if len(shifts) == 0 {
		return nil
	}

	violations := []Violation{}
	consecutive := 1
	prevDate := shifts[0].Date

	for _, s := range shifts[1:] {
		switch {
		case s.Date.Equal(prevDate):
			continue
		case s.Date.Equal(prevDate.AddDate(0, 0, 1)):
			consecutive++
			if consecutive > c.constraints.MaxConsecutiveDays {
				violations = append(violations, Violation{
					WorkerID: workerID,
					Kind:     ViolationConsecutiveDays,
					Details:  fmt.Sprintf("连续工作 %d 天（上限 %d 天）", consecutive, c.constraints.MaxConsecutiveDays),
				})
			}
		default:
			consecutive = 1
		}
		prevDate = s.Date
	}
	return violations
}

func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

func weekKey(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func absoluteStart(date time.Time, startTime string) time.Time {
	start, _ := time.Parse("15:04", startTime)
	return time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, time.UTC)
}

func absoluteEnd(date time.Time, startTime string, endTime string) time.Time {
	return absoluteStart(date, startTime).Add(time.Duration(domain.IntervalHours(startTime, endTime) * float64(time.Hour)))
}
