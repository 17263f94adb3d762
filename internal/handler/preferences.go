package handler

import (
	"net/http"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

func (h *Handler) SubmitPreference(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date      string `json:"date" validate:"required,datetime=2006-01-02"`
		StartTime string `json:"startTime" validate:"required,datetime=15:04"`
		EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
		Priority  int32  `json:"priority" validate:"required,gte=1,lte=3"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.errorResponse(w, r, "日期格式必须为 YYYY-MM-DD")
		return
	}
	if req.EndTime <= req.StartTime {
		h.errorResponse(w, r, "结束时间必须晚于开始时间")
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	preference := &domain.PreferenceEntry{
		WorkerID:  myInfo.ID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Priority:  req.Priority,
		Status:    domain.PreferencePending,
	}

	if err := h.repository.CreatePreferenceEntry(preference); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "偏好提交成功", preference)
}

func (h *Handler) GetMyPreferences(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	preferences, err := h.repository.GetPreferencesByWorkerID(myInfo.ID, startDate, endDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取偏好列表成功", preferences)
}

func (h *Handler) GetPendingPreferences(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	preferences, err := h.repository.GetPendingPreferencesByDateRange(startDate, endDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取待排班偏好成功", preferences)
}
