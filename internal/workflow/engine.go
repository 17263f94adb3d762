package workflow

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/optimizer"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/utils"
)

// ErrGenerationInProgress 表示已经有一次排班生成在进行中
var ErrGenerationInProgress = errors.New("另一次排班生成正在进行中，请稍后重试")

// Store 是工作流引擎需要的持久化能力
// 所有状态转移必须通过 ApplyShiftTransitions 原子地写入
type Store interface {
	GetShiftByID(id int64) (*domain.ShiftAssignment, error)
	GetWorkerByID(id int64) (*domain.Worker, error)
	GetShiftsByGroup(groupID string) ([]*domain.ShiftAssignment, error)
	GetPendingPreferencesByDateRange(startDate time.Time, endDate time.Time) ([]*domain.PreferenceEntry, error)
	GetAllWorkers() ([]*domain.Worker, error)
	SaveGeneratedShifts(assignments []*domain.ShiftAssignment, preferenceIDs []int64) error
	ApplyShiftTransitions(transitions []*domain.ShiftTransition) error
	GetRevisionsByShiftID(shiftID int64) ([]*domain.RevisionEntry, error)
}

// EventPublisher 把通知事件投递给外部的分发服务
// 投递失败只记录日志，绝不回滚已经提交的状态转移
type EventPublisher interface {
	Publish(ctx context.Context, msg *domain.NotificationMessage) error
}

// Locker 保证同一时刻最多只有一次排班生成在消费偏好
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type Engine struct {
	cfg    *config.Config
	store  Store
	events EventPublisher
	lock   Locker
	solver optimizer.Solver
}

func NewEngine(cfg *config.Config, store Store, events EventPublisher, lock Locker, solver optimizer.Solver) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  store,
		events: events,
		lock:   lock,
		solver: solver,
	}
}

func (e *Engine) constraints() optimizer.Constraints {
	return optimizer.Constraints{
		MaxHoursPerDay:     e.cfg.Labor.MaxHoursPerDay,
		MaxHoursPerWeek:    e.cfg.Labor.MaxHoursPerWeek,
		MinRestHours:       e.cfg.Labor.MinRestHours,
		MaxConsecutiveDays: e.cfg.Labor.MaxConsecutiveDays,
		HardMinHeadcount:   e.cfg.Shift.HardMinHeadcount,
	}
}

// Generate 执行一次完整的排班生成：取锁、读偏好、求解、原子落库、发事件
func (e *Engine) Generate(ctx context.Context, actor *domain.Worker, startDate time.Time, endDate time.Time, slots []*domain.ShiftSlot) (*optimizer.GenerationResult, error) {
	if !actor.Role.Meets(domain.RoleSubManager) {
		return nil, &domain.InvalidTransitionError{Event: "generate", RequiredRole: domain.RoleSubManager}
	}

	for _, slot := range slots {
		if slot.MinHeadcount == 0 {
			slot.MinHeadcount = e.cfg.Shift.DefaultMinHeadcount
		}
		if slot.MaxHeadcount == 0 {
			slot.MaxHeadcount = e.cfg.Shift.DefaultMaxHeadcount
		}
	}
	if err := utils.ValidateSlots(slots); err != nil {
		return nil, &domain.ValidationError{Field: "slots", Reason: err.Error()}
	}
	if err := utils.ValidateDateRange(startDate, endDate, e.cfg.Shift.LookaheadDays); err != nil {
		return nil, &domain.ValidationError{Field: "endDate", Reason: err.Error()}
	}

	acquired, err := e.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrGenerationInProgress
	}
	defer func() {
		if err := e.lock.Release(context.Background()); err != nil {
			slog.Error("释放排班生成锁失败", "error", err)
		}
	}()

	preferences, err := e.store.GetPendingPreferencesByDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	workers, err := e.store.GetAllWorkers()
	if err != nil {
		return nil, err
	}

	solveCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Optimizer.SolveTimeout)*time.Second)
	defer cancel()

	opt := optimizer.New(e.solver, e.constraints())
	result, err := opt.Generate(solveCtx, startDate, endDate, slots, preferences, workers, actor.ID)
	if err != nil {
		return nil, err
	}

	// 偏好消费和班次落库在同一个事务中，失败时偏好保持 PENDING
	if err := e.store.SaveGeneratedShifts(result.Assignments, result.ConsumedPreferenceIDs); err != nil {
		return nil, err
	}

	e.publish(ctx, &domain.NotificationMessage{
		Type: domain.EventShiftGroupGenerated,
		Data: domain.ShiftGroupGeneratedData{
			GroupID:    result.GroupID,
			WorkerIDs:  workerIDsOf(result.Assignments),
			StartDate:  startDate.Format("2006-01-02"),
			EndDate:    endDate.Format("2006-01-02"),
			ShiftCount: len(result.Assignments),
		},
	})

	return result, nil
}

type AdjustRequest struct {
	WorkerID  *int64
	StartTime *string
	EndTime   *string
	Reason    string
}

// Adjust 调整单个班次的内容，每个变化的字段各记一条修订，版本号加一
func (e *Engine) Adjust(ctx context.Context, actor *domain.Worker, shiftID int64, req *AdjustRequest) (*domain.ShiftAssignment, error) {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	if !actor.Role.Meets(domain.RoleSubManager) {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "adjust", RequiredRole: domain.RoleSubManager}
	}
	if !shift.CanAdjust() {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "adjust", RequiredRole: domain.RoleSubManager}
	}

	newStart := shift.StartTime
	if req.StartTime != nil {
		newStart = *req.StartTime
	}
	newEnd := shift.EndTime
	if req.EndTime != nil {
		newEnd = *req.EndTime
	}
	if err := validateInterval(newStart, newEnd); err != nil {
		return nil, err
	}

	expectedVersion := shift.Version
	expectedStatus := shift.Status
	revisions := []*domain.RevisionEntry{}

	if req.WorkerID != nil && *req.WorkerID != shift.WorkerID {
		target, err := e.store.GetWorkerByID(*req.WorkerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &domain.ValidationError{Field: "workerID", Reason: "目标员工不存在"}
			}
			return nil, err
		}
		if !target.IsActive {
			return nil, &domain.ValidationError{Field: "workerID", Reason: "目标员工已离职"}
		}
		revisions = append(revisions, domain.NewRevisionEntry(shift.ID, "worker_id", shift.WorkerID, *req.WorkerID, actor.ID, req.Reason))
		shift.WorkerID = *req.WorkerID
	}
	if req.StartTime != nil && *req.StartTime != shift.StartTime {
		revisions = append(revisions, domain.NewRevisionEntry(shift.ID, "start_time", shift.StartTime, *req.StartTime, actor.ID, req.Reason))
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil && *req.EndTime != shift.EndTime {
		revisions = append(revisions, domain.NewRevisionEntry(shift.ID, "end_time", shift.EndTime, *req.EndTime, actor.ID, req.Reason))
		shift.EndTime = *req.EndTime
	}

	if len(revisions) == 0 {
		return nil, &domain.ValidationError{Field: "adjust", Reason: "没有任何字段发生变化"}
	}

	if shift.Status != domain.ShiftAdjusted {
		revisions = append(revisions, domain.NewRevisionEntry(shift.ID, "status", shift.Status, domain.ShiftAdjusted, actor.ID, req.Reason))
		shift.Status = domain.ShiftAdjusted
	}

	now := time.Now()
	actorID := actor.ID
	shift.AdjustedBy = &actorID
	shift.AdjustedAt = &now

	if err := e.store.ApplyShiftTransitions([]*domain.ShiftTransition{{
		Shift:           shift,
		ExpectedVersion: expectedVersion,
		ExpectedStatus:  expectedStatus,
		BumpVersion:     true,
		Revisions:       revisions,
	}}); err != nil {
		return nil, err
	}

	return shift, nil
}

// Approve 审批单个班次，只改状态和审批人信息，版本号不变
func (e *Engine) Approve(ctx context.Context, actor *domain.Worker, shiftID int64) (*domain.ShiftAssignment, error) {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	transition, err := e.approveTransition(actor, shift)
	if err != nil {
		return nil, err
	}

	if err := e.store.ApplyShiftTransitions([]*domain.ShiftTransition{transition}); err != nil {
		return nil, err
	}

	return shift, nil
}

// ApproveGroup 审批整个班次组，要么全部成功要么全部回滚
func (e *Engine) ApproveGroup(ctx context.Context, actor *domain.Worker, groupID string) ([]*domain.ShiftAssignment, error) {
	shifts, err := e.loadGroup(groupID)
	if err != nil {
		return nil, err
	}

	transitions := make([]*domain.ShiftTransition, 0, len(shifts))
	for _, shift := range shifts {
		transition, err := e.approveTransition(actor, shift)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, transition)
	}

	if err := e.store.ApplyShiftTransitions(transitions); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (e *Engine) approveTransition(actor *domain.Worker, shift *domain.ShiftAssignment) (*domain.ShiftTransition, error) {
	if !actor.Role.Meets(domain.RoleManager) {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "approve", RequiredRole: domain.RoleManager}
	}
	if !shift.CanApprove() {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "approve", RequiredRole: domain.RoleManager}
	}

	expectedVersion := shift.Version
	expectedStatus := shift.Status

	revision := domain.NewRevisionEntry(shift.ID, "status", shift.Status, domain.ShiftApproved, actor.ID, "")

	now := time.Now()
	actorID := actor.ID
	shift.Status = domain.ShiftApproved
	shift.ApprovedBy = &actorID
	shift.ApprovedAt = &now

	return &domain.ShiftTransition{
		Shift:           shift,
		ExpectedVersion: expectedVersion,
		ExpectedStatus:  expectedStatus,
		BumpVersion:     false,
		Revisions:       []*domain.RevisionEntry{revision},
	}, nil
}

// PublishGroup 公开整个班次组
// 组内只要有一个班次不是 APPROVED 就拒绝整个操作且不改动任何记录
func (e *Engine) PublishGroup(ctx context.Context, actor *domain.Worker, groupID string) ([]*domain.ShiftAssignment, error) {
	shifts, err := e.loadGroup(groupID)
	if err != nil {
		return nil, err
	}

	if !actor.Role.Meets(domain.RoleManager) {
		return nil, &domain.InvalidTransitionError{From: shifts[0].Status, Event: "publish", RequiredRole: domain.RoleManager}
	}

	pending := []int64{}
	for _, shift := range shifts {
		if !shift.CanPublish() {
			pending = append(pending, shift.ID)
		}
	}
	if len(pending) > 0 {
		return nil, &domain.GroupNotReadyError{GroupID: groupID, PendingMembers: pending}
	}

	now := time.Now()
	actorID := actor.ID
	transitions := make([]*domain.ShiftTransition, 0, len(shifts))
	var startDate, endDate time.Time

	for _, shift := range shifts {
		expectedVersion := shift.Version
		expectedStatus := shift.Status

		revision := domain.NewRevisionEntry(shift.ID, "status", shift.Status, domain.ShiftPublished, actor.ID, "")

		shift.Status = domain.ShiftPublished
		shift.PublishedBy = &actorID
		shift.PublishedAt = &now

		transitions = append(transitions, &domain.ShiftTransition{
			Shift:           shift,
			ExpectedVersion: expectedVersion,
			ExpectedStatus:  expectedStatus,
			BumpVersion:     false,
			Revisions:       []*domain.RevisionEntry{revision},
		})

		if startDate.IsZero() || shift.Date.Before(startDate) {
			startDate = shift.Date
		}
		if endDate.IsZero() || shift.Date.After(endDate) {
			endDate = shift.Date
		}
	}

	if err := e.store.ApplyShiftTransitions(transitions); err != nil {
		return nil, err
	}

	e.publish(ctx, &domain.NotificationMessage{
		Type: domain.EventShiftPublished,
		Data: domain.ShiftPublishedData{
			GroupID:   groupID,
			WorkerIDs: workerIDsOf(shifts),
			StartDate: startDate.Format("2006-01-02"),
			EndDate:   endDate.Format("2006-01-02"),
		},
	})

	return shifts, nil
}

// Reject 驳回单个班次，必须给出非空理由
func (e *Engine) Reject(ctx context.Context, actor *domain.Worker, shiftID int64, reason string) (*domain.ShiftAssignment, error) {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	transition, err := e.rejectTransition(actor, shift, reason)
	if err != nil {
		return nil, err
	}

	if err := e.store.ApplyShiftTransitions([]*domain.ShiftTransition{transition}); err != nil {
		return nil, err
	}

	e.publish(ctx, &domain.NotificationMessage{
		Type: domain.EventShiftRejected,
		Data: domain.ShiftRejectedData{
			GroupID:   shift.GroupID,
			WorkerIDs: []int64{shift.WorkerID},
			Reason:    reason,
		},
	})

	return shift, nil
}

// RejectGroup 驳回整个班次组
func (e *Engine) RejectGroup(ctx context.Context, actor *domain.Worker, groupID string, reason string) ([]*domain.ShiftAssignment, error) {
	shifts, err := e.loadGroup(groupID)
	if err != nil {
		return nil, err
	}

	transitions := make([]*domain.ShiftTransition, 0, len(shifts))
	for _, shift := range shifts {
		transition, err := e.rejectTransition(actor, shift, reason)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, transition)
	}

	if err := e.store.ApplyShiftTransitions(transitions); err != nil {
		return nil, err
	}

	e.publish(ctx, &domain.NotificationMessage{
		Type: domain.EventShiftRejected,
		Data: domain.ShiftRejectedData{
			GroupID:   groupID,
			WorkerIDs: workerIDsOf(shifts),
			Reason:    reason,
		},
	})

	return shifts, nil
}

func (e *Engine) rejectTransition(actor *domain.Worker, shift *domain.ShiftAssignment, reason string) (*domain.ShiftTransition, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &domain.ValidationError{Field: "rejection_reason", Reason: "驳回理由不能为空"}
	}
	if !actor.Role.Meets(domain.RoleManager) {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "reject", RequiredRole: domain.RoleManager}
	}
	if !shift.CanReject() {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "reject", RequiredRole: domain.RoleManager}
	}

	expectedVersion := shift.Version
	expectedStatus := shift.Status

	revisions := []*domain.RevisionEntry{
		domain.NewRevisionEntry(shift.ID, "status", shift.Status, domain.ShiftRejected, actor.ID, reason),
		domain.NewRevisionEntry(shift.ID, "rejection_reason", shift.RejectionReason, reason, actor.ID, reason),
	}

	now := time.Now()
	actorID := actor.ID
	shift.Status = domain.ShiftRejected
	shift.RejectedBy = &actorID
	shift.RejectedAt = &now
	shift.RejectionReason = &reason

	return &domain.ShiftTransition{
		Shift:           shift,
		ExpectedVersion: expectedVersion,
		ExpectedStatus:  expectedStatus,
		BumpVersion:     false,
		Revisions:       revisions,
	}, nil
}

// Revise 把被驳回的班次拉回 DRAFT，开启新一轮修改，版本号加一
func (e *Engine) Revise(ctx context.Context, actor *domain.Worker, shiftID int64) (*domain.ShiftAssignment, error) {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	if !actor.Role.Meets(domain.RoleSubManager) {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "revise", RequiredRole: domain.RoleSubManager}
	}
	if !shift.CanRevise() {
		return nil, &domain.InvalidTransitionError{From: shift.Status, Event: "revise", RequiredRole: domain.RoleSubManager}
	}

	expectedVersion := shift.Version
	expectedStatus := shift.Status

	revisions := []*domain.RevisionEntry{
		domain.NewRevisionEntry(shift.ID, "status", shift.Status, domain.ShiftDraft, actor.ID, ""),
	}
	if shift.RejectionReason != nil {
		revisions = append(revisions, domain.NewRevisionEntry(shift.ID, "rejection_reason", shift.RejectionReason, "", actor.ID, ""))
	}

	shift.Status = domain.ShiftDraft
	shift.RejectionReason = nil

	if err := e.store.ApplyShiftTransitions([]*domain.ShiftTransition{{
		Shift:           shift,
		ExpectedVersion: expectedVersion,
		ExpectedStatus:  expectedStatus,
		BumpVersion:     true,
		Revisions:       revisions,
	}}); err != nil {
		return nil, err
	}

	return shift, nil
}

// History 返回某个班次按时间升序的完整修订记录
func (e *Engine) History(ctx context.Context, shiftID int64) ([]*domain.RevisionEntry, error) {
	return e.store.GetRevisionsByShiftID(shiftID)
}

func (e *Engine) loadGroup(groupID string) ([]*domain.ShiftAssignment, error) {
	shifts, err := e.store.GetShiftsByGroup(groupID)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, &domain.ValidationError{Field: "groupID", Reason: "班次组不存在"}
	}
	return shifts, nil
}

func (e *Engine) publish(ctx context.Context, msg *domain.NotificationMessage) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, msg); err != nil {
		slog.Error("通知事件投递失败", "type", msg.Type, "error", err)
	}
}

func workerIDsOf(shifts []*domain.ShiftAssignment) []int64 {
	seen := make(map[int64]bool)
	ids := make([]int64, 0)
	for _, shift := range shifts {
		if !seen[shift.WorkerID] {
			seen[shift.WorkerID] = true
			ids = append(ids, shift.WorkerID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func validateInterval(startTime string, endTime string) error {
	if _, err := time.Parse("15:04", startTime); err != nil {
		return &domain.ValidationError{Field: "startTime", Reason: "时间格式必须为 HH:MM"}
	}
	if _, err := time.Parse("15:04", endTime); err != nil {
		return &domain.ValidationError{Field: "endTime", Reason: "时间格式必须为 HH:MM"}
	}
	if endTime <= startTime {
		return &domain.ValidationError{Field: "endTime", Reason: "结束时间必须晚于开始时间"}
	}
	return nil
}
