package domain

import "time"

type ShiftStatus string

const (
	ShiftDraft     ShiftStatus = "DRAFT"
	ShiftAdjusted  ShiftStatus = "ADJUSTED"
	ShiftApproved  ShiftStatus = "APPROVED"
	ShiftPublished ShiftStatus = "PUBLISHED"
	ShiftRejected  ShiftStatus = "REJECTED"
)

// ShiftSlot 是排班器的输入，不落库
// RequiredSkillLevel 和 PredictedTraffic 目前只作为快照带到生成的班次上
type ShiftSlot struct {
	Date               time.Time `json:"date"`
	StartTime          string    `json:"startTime"`
	EndTime            string    `json:"endTime"`
	MinHeadcount       int32     `json:"minHeadcount"`
	MaxHeadcount       int32     `json:"maxHeadcount"`
	RequiredSkillLevel *float64  `json:"requiredSkillLevel"`
	PredictedTraffic   *int32    `json:"predictedTraffic"`
}

type ShiftAssignment struct {
	ID        int64       `json:"id"`
	GroupID   string      `json:"groupID"` // 同一次排班生成的班次共享一个 group
	WorkerID  int64       `json:"workerID"`
	Date      time.Time   `json:"date"`
	StartTime string      `json:"startTime"`
	EndTime   string      `json:"endTime"`
	Status    ShiftStatus `json:"status"`
	Version   int32       `json:"version"`

	RequiredSkillLevel *float64 `json:"requiredSkillLevel"`
	PredictedTraffic   *int32   `json:"predictedTraffic"`

	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`

	AdjustedBy *int64     `json:"adjustedBy"`
	AdjustedAt *time.Time `json:"adjustedAt"`

	ApprovedBy *int64     `json:"approvedBy"`
	ApprovedAt *time.Time `json:"approvedAt"`

	PublishedBy *int64     `json:"publishedBy"`
	PublishedAt *time.Time `json:"publishedAt"`

	RejectedBy      *int64     `json:"rejectedBy"`
	RejectedAt      *time.Time `json:"rejectedAt"`
	RejectionReason *string    `json:"rejectionReason"`
}

// 状态机判断，所有转移必须先通过这里，禁止直接改 Status
func (s *ShiftAssignment) CanAdjust() bool {
	return s.Status == ShiftDraft || s.Status == ShiftAdjusted
}

func (s *ShiftAssignment) CanApprove() bool {
	return s.Status == ShiftDraft || s.Status == ShiftAdjusted
}

func (s *ShiftAssignment) CanPublish() bool {
	return s.Status == ShiftApproved
}

func (s *ShiftAssignment) CanReject() bool {
	return s.Status == ShiftDraft || s.Status == ShiftAdjusted || s.Status == ShiftApproved
}

func (s *ShiftAssignment) CanRevise() bool {
	return s.Status == ShiftRejected
}

func (s *ShiftAssignment) IsPublished() bool {
	return s.Status == ShiftPublished
}

func (s *ShiftAssignment) DurationHours() float64 {
	return IntervalHours(s.StartTime, s.EndTime)
}

// IntervalHours 计算 "15:04" 格式的起止时刻之间的小时数，跨天的班次会自动加一天
func IntervalHours(startTime string, endTime string) float64 {
	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return 0
	}

	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}

	return end.Sub(start).Hours()
}

// ShiftTransition 是一次已通过校验的状态转移，由 workflow 构造、由存储层原子地落库
// ExpectedVersion/ExpectedStatus 用于乐观并发检查，写入时不匹配则整个转移回滚
type ShiftTransition struct {
	Shift           *ShiftAssignment
	ExpectedVersion int32
	ExpectedStatus  ShiftStatus
	BumpVersion     bool
	Revisions       []*RevisionEntry
}
