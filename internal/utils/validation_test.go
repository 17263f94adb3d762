package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

func slotOn(d int, start string, end string) *domain.ShiftSlot {
	return &domain.ShiftSlot{
		Date:         time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC),
		StartTime:    start,
		EndTime:      end,
		MinHeadcount: 1,
		MaxHeadcount: 3,
	}
}

func TestValidateSlotsAcceptsWellFormedSlots(t *testing.T) {
	slots := []*domain.ShiftSlot{
		slotOn(1, "09:00", "17:00"),
		slotOn(1, "17:00", "23:00"),
		slotOn(2, "09:00", "17:00"),
	}
	require.NoError(t, ValidateSlots(slots))
}

func TestValidateSlotsRejectsBadTimeFormat(t *testing.T) {
	err := ValidateSlots([]*domain.ShiftSlot{slotOn(1, "9am", "17:00")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "开始时间格式错误")

	err = ValidateSlots([]*domain.ShiftSlot{slotOn(1, "09:00", "25:00")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "结束时间格式错误")
}

func TestValidateSlotsRejectsInvertedInterval(t *testing.T) {
	err := ValidateSlots([]*domain.ShiftSlot{slotOn(1, "17:00", "09:00")})
	require.Error(t, err)

	// 起止相同也不行
	err = ValidateSlots([]*domain.ShiftSlot{slotOn(1, "09:00", "09:00")})
	require.Error(t, err)
}

func TestValidateSlotsRejectsMinAboveMax(t *testing.T) {
	slot := slotOn(1, "09:00", "17:00")
	slot.MinHeadcount = 5
	slot.MaxHeadcount = 2

	err := ValidateSlots([]*domain.ShiftSlot{slot})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "最小人数不能大于最大人数")
}

func TestValidateSlotsRejectsDuplicates(t *testing.T) {
	slots := []*domain.ShiftSlot{
		slotOn(1, "09:00", "17:00"),
		slotOn(2, "09:00", "17:00"),
		slotOn(1, "09:00", "17:00"),
	}
	err := ValidateSlots(slots)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "重复")
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ValidateDateRange(start, start, 14))
	require.NoError(t, ValidateDateRange(start, start.AddDate(0, 0, 14), 14))

	err := ValidateDateRange(start, start.AddDate(0, 0, -1), 14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "结束日期不能早于开始日期")

	err = ValidateDateRange(start, start.AddDate(0, 0, 15), 14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不能超过 14 天")

	// maxDays 为 0 表示不限制跨度
	require.NoError(t, ValidateDateRange(start, start.AddDate(0, 0, 365), 0))
}
