package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Expiration = 3600
	cfg.JWT.Secret = "test-secret"

	h, err := NewHandler(cfg, nil, nil)
	require.NoError(t, err)
	return h
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	resp := Response{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWorkflowErrorMapping(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "状态机拒绝按业务失败返回",
			err:        &domain.InvalidTransitionError{From: domain.ShiftPublished, Event: "adjust", RequiredRole: domain.RoleSubManager},
			wantStatus: http.StatusOK,
			wantMsg:    "不允许执行",
		},
		{
			name:       "版本冲突提示刷新重试",
			err:        &domain.VersionConflictError{ShiftID: 1, Expected: 1, Actual: 2},
			wantStatus: http.StatusOK,
			wantMsg:    "该班次已被其他人修改",
		},
		{
			name:       "记录不存在",
			err:        sql.ErrNoRows,
			wantStatus: http.StatusOK,
			wantMsg:    "班次不存在",
		},
		{
			name:       "存储故障返回 503 且提示可重试",
			err:        &domain.StorageUnavailableError{Op: "get_shift_by_id", Err: sql.ErrConnDone},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "存储暂时不可用",
		},
		{
			name:       "未识别的错误按内部错误处理",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "服务器内部错误",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/shifts/1", nil)

			h.workflowError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.wantMsg)
		})
	}
}

func TestReadJSONRejectsMalformedBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))

	var v struct{}
	err := h.readJSON(req, &v)
	require.Error(t, err)
	assert.Equal(t, "请求体不是合法的 JSON", err.Error())
}

func TestAuthTokenExpiresInConfiguredSeconds(t *testing.T) {
	h := newTestHandler(t)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	worker := &domain.Worker{ID: 42, Role: domain.RoleStaff}

	ss, expiration, err := h.newAuthToken(worker, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiration)

	claims := &AuthClaims{}
	_, err = jwt.ParseWithClaims(ss, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)

	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "STAFF", claims.Role)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}
