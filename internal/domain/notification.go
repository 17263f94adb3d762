package domain

// 通知事件的类型，由外部的投递服务消费，本服务只负责投递到消息队列
const (
	EventShiftGroupGenerated = "shift_group_generated"
	EventShiftPublished      = "shift_published"
	EventShiftRejected       = "shift_rejected"
)

type NotificationMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type ShiftGroupGeneratedData struct {
	GroupID    string  `json:"groupID"`
	WorkerIDs  []int64 `json:"workerIDs"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	ShiftCount int     `json:"shiftCount"`
}

type ShiftPublishedData struct {
	GroupID   string  `json:"groupID"`
	WorkerIDs []int64 `json:"workerIDs"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
}

type ShiftRejectedData struct {
	GroupID   string  `json:"groupID"`
	WorkerIDs []int64 `json:"workerIDs"`
	Reason    string  `json:"reason"`
}
