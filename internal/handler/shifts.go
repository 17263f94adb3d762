package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/workflow"
)

// parseDateRange 从查询参数中解析 startDate 和 endDate
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	startDate, err := time.Parse("2006-01-02", r.URL.Query().Get("startDate"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("startDate 格式必须为 YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", r.URL.Query().Get("endDate"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("endDate 格式必须为 YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, errors.New("endDate 不能早于 startDate")
	}
	return startDate, endDate, nil
}

func (h *Handler) GenerateShiftGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
		Slots     []struct {
			Date               string   `json:"date" validate:"required,datetime=2006-01-02"`
			StartTime          string   `json:"startTime" validate:"required,datetime=15:04"`
			EndTime            string   `json:"endTime" validate:"required,datetime=15:04"`
			MinHeadcount       int32    `json:"minHeadcount" validate:"gte=0"`
			MaxHeadcount       int32    `json:"maxHeadcount" validate:"gte=0"`
			RequiredSkillLevel *float64 `json:"requiredSkillLevel" validate:"omitempty,gte=0,lte=5"`
			PredictedTraffic   *int32   `json:"predictedTraffic" validate:"omitempty,gte=0"`
		} `json:"slots" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	slots := make([]*domain.ShiftSlot, 0, len(req.Slots))
	for _, s := range req.Slots {
		date, err := time.Parse("2006-01-02", s.Date)
		if err != nil {
			h.errorResponse(w, r, "班次日期格式必须为 YYYY-MM-DD")
			return
		}
		slots = append(slots, &domain.ShiftSlot{
			Date:               date,
			StartTime:          s.StartTime,
			EndTime:            s.EndTime,
			MinHeadcount:       s.MinHeadcount,
			MaxHeadcount:       s.MaxHeadcount,
			RequiredSkillLevel: s.RequiredSkillLevel,
			PredictedTraffic:   s.PredictedTraffic,
		})
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	result, err := h.engine.Generate(r.Context(), myInfo, startDate, endDate, slots)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班生成成功", result)
}

func (h *Handler) GetShiftGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	shifts, err := h.repository.GetShiftsByGroup(groupID)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}
	if len(shifts) == 0 {
		h.errorResponse(w, r, "班次组不存在")
		return
	}

	h.successResponse(w, r, "获取班次组成功", shifts)
}

func (h *Handler) ApproveShiftGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	shifts, err := h.engine.ApproveGroup(r.Context(), myInfo, groupID)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次组审批通过", shifts)
}

func (h *Handler) RejectShiftGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	groupID := chi.URLParam(r, "groupID")
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	shifts, err := h.engine.RejectGroup(r.Context(), myInfo, groupID, req.Reason)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次组已驳回", shifts)
}

func (h *Handler) PublishShiftGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	shifts, err := h.engine.PublishGroup(r.Context(), myInfo, groupID)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次组已公开", shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftInfoCtx).(*domain.ShiftAssignment)
	h.successResponse(w, r, "获取班次成功", shift)
}

func (h *Handler) AdjustShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkerID  *int64  `json:"workerID"`
		StartTime *string `json:"startTime" validate:"omitempty,datetime=15:04"`
		EndTime   *string `json:"endTime" validate:"omitempty,datetime=15:04"`
		Reason    string  `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := r.Context().Value(ShiftInfoCtx).(*domain.ShiftAssignment)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	updated, err := h.engine.Adjust(r.Context(), myInfo, shift.ID, &workflow.AdjustRequest{
		WorkerID:  req.WorkerID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次调整成功", updated)
}

func (h *Handler) ApproveShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftInfoCtx).(*domain.ShiftAssignment)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	updated, err := h.engine.Approve(r.Context(), myInfo, shift.ID)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次审批通过", updated)
}

func (h *Handler) RejectShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := r.Context().Value(ShiftInfoCtx).(*domain.ShiftAssignment)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	updated, err := h.engine.Reject(r.Context(), myInfo, shift.ID, req.Reason)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次已驳回", updated)
}

func (h *Handler) ReviseShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftInfoCtx).(*domain.ShiftAssignment)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	updated, err := h.engine.Revise(r.Context(), myInfo, shift.ID)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "班次已退回修改", updated)
}

func (h *Handler) GetShiftRevisions(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftInfoCtx).(*domain.ShiftAssignment)

	revisions, err := h.engine.History(r.Context(), shift.ID)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取修订记录成功", revisions)
}

func (h *Handler) GetMyShifts(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	shifts, err := h.repository.GetPublishedShiftsByWorker(myInfo.ID, startDate, endDate)
	if err != nil {
		h.workflowError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取我的班次成功", shifts)
}
