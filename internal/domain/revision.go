package domain

import (
	"fmt"
	"time"
)

// RevisionEntry 是只追加的审计记录，业务逻辑不从这里读取当前状态
type RevisionEntry struct {
	ID        int64     `json:"id"`
	ShiftID   int64     `json:"shiftID"`
	FieldName string    `json:"fieldName"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	ChangedBy int64     `json:"changedBy"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changedAt"`
}

func NewRevisionEntry(shiftID int64, fieldName string, oldValue any, newValue any, changedBy int64, reason string) *RevisionEntry {
	return &RevisionEntry{
		ShiftID:   shiftID,
		FieldName: fieldName,
		OldValue:  revisionValue(oldValue),
		NewValue:  revisionValue(newValue),
		ChangedBy: changedBy,
		Reason:    reason,
		ChangedAt: time.Now(),
	}
}

func revisionValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case *string:
		if value == nil {
			return ""
		}
		return *value
	case time.Time:
		return value.Format("2006-01-02")
	case ShiftStatus:
		return string(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
