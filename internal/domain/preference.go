package domain

import "time"

type PreferenceStatus string

const (
	PreferencePending  PreferenceStatus = "PENDING"
	PreferenceConsumed PreferenceStatus = "CONSUMED"
	PreferenceRejected PreferenceStatus = "REJECTED"
)

// PreferenceEntry 是员工提交的空闲时间窗口
// 被排班器采用后只做状态流转（PENDING -> CONSUMED），内容不会被修改
type PreferenceEntry struct {
	ID        int64            `json:"id"`
	WorkerID  int64            `json:"workerID"`
	Date      time.Time        `json:"date"`
	StartTime string           `json:"startTime"`
	EndTime   string           `json:"endTime"`
	Priority  int32            `json:"priority"` // 1 表示最强烈的偏好
	Status    PreferenceStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	Version   int32            `json:"-"`
}

// Weight 返回目标函数中的权重，优先级越高权重越大
func (p *PreferenceEntry) Weight() int32 {
	w := 4 - p.Priority
	if w < 1 {
		w = 1
	}
	return w
}

func (p *PreferenceEntry) DurationHours() float64 {
	return IntervalHours(p.StartTime, p.EndTime)
}
