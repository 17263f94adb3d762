package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/repository"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/workflow"
)

// Response 是所有接口的统一响应信封
// 业务上的失败（校验不过、状态机拒绝、并发冲突）返回 HTTP 200 且 success 为 false，
// 只有服务器自身的故障才返回 5xx
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
			errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
			return errors.New("请求体不是合法的 JSON")
		default:
			return err
		}
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

func (h *Handler) logServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors := validator.ValidationErrors{}
	if errors.As(err, &validationErrors) {
		h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
		return
	}

	h.errorResponse(w, r, err.Error())
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "服务器内部错误",
	})
}

// 存储故障对这次请求是致命的，但客户端可以稍后原样重试，用 503 区别于 500
func (h *Handler) storageUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	h.logServerError(r, err)
	h.writeJSON(w, r, http.StatusServiceUnavailable, Response{
		Success: false,
		Message: "存储暂时不可用，请稍后重试",
	})
}

// workflowError 把领域层的结构化错误翻译成客户端响应
// 未识别的错误一律按服务器内部错误处理
func (h *Handler) workflowError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		infeasibleErr      *domain.InfeasibleScheduleError
		transitionErr      *domain.InvalidTransitionError
		groupNotReadyErr   *domain.GroupNotReadyError
		versionConflictErr *domain.VersionConflictError
		validationErr      *domain.ValidationError
		storageErr         *domain.StorageUnavailableError
	)

	switch {
	case errors.As(err, &infeasibleErr):
		h.errorResponse(w, r, infeasibleErr.Error())
	case errors.As(err, &transitionErr):
		h.errorResponse(w, r, transitionErr.Error())
	case errors.As(err, &groupNotReadyErr):
		h.errorResponse(w, r, groupNotReadyErr.Error())
	case errors.As(err, &versionConflictErr):
		h.errorResponse(w, r, "该班次已被其他人修改，请刷新后重试")
	case errors.As(err, &validationErr):
		h.errorResponse(w, r, validationErr.Error())
	case errors.Is(err, workflow.ErrGenerationInProgress):
		h.errorResponse(w, r, err.Error())
	case errors.Is(err, repository.ErrPreferenceAlreadyConsumed):
		h.errorResponse(w, r, err.Error())
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "班次不存在")
	case errors.As(err, &storageErr):
		h.storageUnavailable(w, r, err)
	default:
		h.internalServerError(w, r, err)
	}
}
