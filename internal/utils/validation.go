package utils

import (
	"fmt"
	"time"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

func ValidateSlots(slots []*domain.ShiftSlot) error {
	// 检查每一个时段的结束时间是不是都大于开始时间
	for id, slot := range slots {
		startTime, err := time.Parse("15:04", slot.StartTime)
		if err != nil {
			return fmt.Errorf("时段 %d 的开始时间格式错误", id)
		}
		endTime, err := time.Parse("15:04", slot.EndTime)
		if err != nil {
			return fmt.Errorf("时段 %d 的结束时间格式错误", id)
		}
		if !endTime.After(startTime) {
			return fmt.Errorf("时段 %d 的结束时间必须晚于开始时间", id)
		}
		if slot.MinHeadcount > slot.MaxHeadcount {
			return fmt.Errorf("时段 %d 的最小人数不能大于最大人数", id)
		}
	}

	// 检查是否存在完全重复的时段
	seen := make(map[string]int)
	for id, slot := range slots {
		key := slot.Date.Format("2006-01-02") + " " + slot.StartTime + "-" + slot.EndTime
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("时段 %d 和时段 %d 重复", prev, id)
		}
		seen[key] = id
	}

	return nil
}

func ValidateDateRange(startDate time.Time, endDate time.Time, maxDays int) error {
	if endDate.Before(startDate) {
		return fmt.Errorf("结束日期不能早于开始日期")
	}
	if maxDays > 0 && endDate.Sub(startDate) > time.Duration(maxDays)*24*time.Hour {
		return fmt.Errorf("日期范围不能超过 %d 天", maxDays)
	}
	return nil
}
