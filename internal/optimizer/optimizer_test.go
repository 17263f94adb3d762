package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

func testConstraints() Constraints {
	return Constraints{
		MaxHoursPerDay:     8,
		MaxHoursPerWeek:    40,
		MinRestHours:       11,
		MaxConsecutiveDays: 6,
	}
}

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func slot(d int, start, end string, min, max int32) *domain.ShiftSlot {
	return &domain.ShiftSlot{
		Date:         day(d),
		StartTime:    start,
		EndTime:      end,
		MinHeadcount: min,
		MaxHeadcount: max,
	}
}

func pref(id, workerID int64, d int, start, end string, priority int32) *domain.PreferenceEntry {
	return &domain.PreferenceEntry{
		ID:        id,
		WorkerID:  workerID,
		Date:      day(d),
		StartTime: start,
		EndTime:   end,
		Priority:  priority,
		Status:    domain.PreferencePending,
	}
}

func worker(id int64) *domain.Worker {
	return &domain.Worker{ID: id, IsActive: true}
}

type stubSolver struct {
	solution *Solution
}

func (s *stubSolver) Solve(_ context.Context, _ *Problem) (*Solution, error) {
	return s.solution, nil
}

func TestInfeasibleConstraintNamesSortedAndUnique(t *testing.T) {
	// 同一个员工当天排了两段共 10 小时且只间隔 1 小时，复核必须同时命中两类违规
	solver := &stubSolver{solution: &Solution{
		Assignments: []*SolvedAssignment{
			{WorkerID: 1, PreferenceID: 1, Date: day(1), StartTime: "08:00", EndTime: "13:00"},
			{WorkerID: 1, PreferenceID: 2, Date: day(1), StartTime: "14:00", EndTime: "19:00"},
		},
	}}
	opt := New(solver, testConstraints())

	_, err := opt.Generate(context.Background(), day(1), day(1), nil, nil, nil, 99)

	var infeasibleErr *domain.InfeasibleScheduleError
	require.True(t, errors.As(err, &infeasibleErr))
	assert.Equal(t, []string{ViolationDailyHours, ViolationMinRest}, infeasibleErr.ViolatedConstraints)
}

func TestGenerateAssignsPreferredWorkers(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	result, err := opt.Generate(
		context.Background(),
		day(1), day(1),
		[]*domain.ShiftSlot{slot(1, "09:00", "17:00", 1, 2)},
		[]*domain.PreferenceEntry{
			pref(1, 1, 1, "08:00", "18:00", 1),
			pref(2, 2, 1, "09:00", "17:00", 3),
		},
		[]*domain.Worker{worker(1), worker(2)},
		99,
	)
	require.NoError(t, err)

	require.Len(t, result.Assignments, 2)
	assert.NotEmpty(t, result.GroupID)
	assert.ElementsMatch(t, []int64{1, 2}, result.ConsumedPreferenceIDs)

	for _, a := range result.Assignments {
		assert.Equal(t, result.GroupID, a.GroupID)
		assert.Equal(t, domain.ShiftDraft, a.Status)
		assert.Equal(t, int32(1), a.Version)
		assert.Equal(t, int64(99), a.CreatedBy)
	}

	// 权重高的偏好先被满足
	assert.Equal(t, int64(1), result.Assignments[0].WorkerID)
	assert.Empty(t, result.Shortfalls)
}

func TestGenerateDeterministic(t *testing.T) {
	slots := []*domain.ShiftSlot{
		slot(1, "09:00", "13:00", 1, 1),
		slot(2, "09:00", "13:00", 1, 1),
		slot(3, "14:00", "18:00", 1, 2),
	}
	preferences := []*domain.PreferenceEntry{
		pref(1, 1, 1, "08:00", "14:00", 2),
		pref(2, 2, 1, "09:00", "13:00", 2),
		pref(3, 1, 2, "09:00", "13:00", 3),
		pref(4, 3, 2, "08:00", "20:00", 1),
		pref(5, 2, 3, "14:00", "18:00", 2),
		pref(6, 3, 3, "12:00", "19:00", 2),
	}
	workers := []*domain.Worker{worker(1), worker(2), worker(3)}

	opt := New(NewGreedySolver(), testConstraints())

	first, err := opt.Generate(context.Background(), day(1), day(3), slots, preferences, workers, 99)
	require.NoError(t, err)
	second, err := opt.Generate(context.Background(), day(1), day(3), slots, preferences, workers, 99)
	require.NoError(t, err)

	require.Len(t, second.Assignments, len(first.Assignments))
	for i := range first.Assignments {
		assert.Equal(t, first.Assignments[i].WorkerID, second.Assignments[i].WorkerID)
		assert.Equal(t, first.Assignments[i].Date, second.Assignments[i].Date)
		assert.Equal(t, first.Assignments[i].StartTime, second.Assignments[i].StartTime)
		assert.Equal(t, first.Assignments[i].EndTime, second.Assignments[i].EndTime)
	}
	assert.Equal(t, first.ConsumedPreferenceIDs, second.ConsumedPreferenceIDs)
}

func TestTieBreakPrefersLowestWorkerID(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	result, err := opt.Generate(
		context.Background(),
		day(1), day(1),
		[]*domain.ShiftSlot{slot(1, "09:00", "17:00", 1, 1)},
		[]*domain.PreferenceEntry{
			pref(10, 5, 1, "09:00", "17:00", 2),
			pref(11, 2, 1, "09:00", "17:00", 2),
		},
		[]*domain.Worker{worker(2), worker(5)},
		99,
	)
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, int64(2), result.Assignments[0].WorkerID)
}

func TestTieBreakPrefersAlreadyUsedWorker(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	// 第一天只有 5 号有偏好，第二天两人权重相同时应该继续用 5 号而不是编号更小的 2 号
	result, err := opt.Generate(
		context.Background(),
		day(1), day(2),
		[]*domain.ShiftSlot{
			slot(1, "09:00", "13:00", 1, 1),
			slot(2, "09:00", "13:00", 1, 1),
		},
		[]*domain.PreferenceEntry{
			pref(1, 5, 1, "09:00", "13:00", 2),
			pref(2, 2, 2, "09:00", "13:00", 2),
			pref(3, 5, 2, "09:00", "13:00", 2),
		},
		[]*domain.Worker{worker(2), worker(5)},
		99,
	)
	require.NoError(t, err)

	require.Len(t, result.Assignments, 2)
	assert.Equal(t, int64(5), result.Assignments[0].WorkerID)
	assert.Equal(t, int64(5), result.Assignments[1].WorkerID)
}

func TestHardMinHeadcountInfeasible(t *testing.T) {
	constraints := testConstraints()
	constraints.HardMinHeadcount = true
	opt := New(NewGreedySolver(), constraints)

	_, err := opt.Generate(
		context.Background(),
		day(1), day(1),
		[]*domain.ShiftSlot{slot(1, "09:00", "17:00", 2, 3)},
		[]*domain.PreferenceEntry{pref(1, 1, 1, "09:00", "17:00", 1)},
		[]*domain.Worker{worker(1)},
		99,
	)

	var infeasibleErr *domain.InfeasibleScheduleError
	require.True(t, errors.As(err, &infeasibleErr))
	require.Len(t, infeasibleErr.ViolatedConstraints, 1)
	assert.Contains(t, infeasibleErr.ViolatedConstraints[0], "min_headcount:2026-09-01")
}

func TestSoftMinHeadcountRecordsShortfall(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	result, err := opt.Generate(
		context.Background(),
		day(1), day(1),
		[]*domain.ShiftSlot{slot(1, "09:00", "17:00", 2, 3)},
		[]*domain.PreferenceEntry{pref(1, 1, 1, "09:00", "17:00", 1)},
		[]*domain.Worker{worker(1)},
		99,
	)
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, int32(2), result.Shortfalls[0].Required)
	assert.Equal(t, int32(1), result.Shortfalls[0].Assigned)
}

func TestInactiveWorkerExcluded(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	inactive := worker(1)
	inactive.IsActive = false

	result, err := opt.Generate(
		context.Background(),
		day(1), day(1),
		[]*domain.ShiftSlot{slot(1, "09:00", "17:00", 1, 1)},
		[]*domain.PreferenceEntry{pref(1, 1, 1, "09:00", "17:00", 1)},
		[]*domain.Worker{inactive},
		99,
	)
	require.NoError(t, err)

	assert.Empty(t, result.Assignments)
	require.Len(t, result.Shortfalls, 1)
}

func TestOneShiftPerWorkerPerDay(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	// 偏好窗口覆盖两个时段，但一人一天最多承担一个班次
	result, err := opt.Generate(
		context.Background(),
		day(1), day(1),
		[]*domain.ShiftSlot{
			slot(1, "09:00", "12:00", 1, 1),
			slot(1, "13:00", "17:00", 1, 1),
		},
		[]*domain.PreferenceEntry{pref(1, 1, 1, "08:00", "18:00", 1)},
		[]*domain.Worker{worker(1)},
		99,
	)
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "09:00", result.Assignments[0].StartTime)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, "13:00", result.Shortfalls[0].StartTime)
}

func TestMinRestBlocksBackToBackDays(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	// 第一天 15:00-23:00 结束后，第二天 07:00 开始只休息了 8 小时
	result, err := opt.Generate(
		context.Background(),
		day(1), day(2),
		[]*domain.ShiftSlot{
			slot(1, "15:00", "23:00", 1, 1),
			slot(2, "07:00", "12:00", 1, 1),
		},
		[]*domain.PreferenceEntry{
			pref(1, 1, 1, "15:00", "23:00", 1),
			pref(2, 1, 2, "07:00", "12:00", 1),
		},
		[]*domain.Worker{worker(1)},
		99,
	)
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, day(1), result.Assignments[0].Date)
	require.Len(t, result.Shortfalls, 1)
}

func TestSolveBudgetExceeded(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := opt.Generate(
		ctx,
		day(1), day(1),
		[]*domain.ShiftSlot{slot(1, "09:00", "17:00", 1, 1)},
		[]*domain.PreferenceEntry{pref(1, 1, 1, "09:00", "17:00", 1)},
		[]*domain.Worker{worker(1)},
		99,
	)

	var infeasibleErr *domain.InfeasibleScheduleError
	require.True(t, errors.As(err, &infeasibleErr))
	assert.Equal(t, []string{"solve_time_budget_exceeded"}, infeasibleErr.ViolatedConstraints)
}

func TestGenerateRejectsInvertedDateRange(t *testing.T) {
	opt := New(NewGreedySolver(), testConstraints())

	_, err := opt.Generate(context.Background(), day(2), day(1), nil, nil, nil, 99)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
}
