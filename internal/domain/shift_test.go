package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionPredicates(t *testing.T) {
	cases := []struct {
		status     ShiftStatus
		canAdjust  bool
		canApprove bool
		canPublish bool
		canReject  bool
		canRevise  bool
	}{
		{ShiftDraft, true, true, false, true, false},
		{ShiftAdjusted, true, true, false, true, false},
		{ShiftApproved, false, false, true, true, false},
		{ShiftPublished, false, false, false, false, false},
		{ShiftRejected, false, false, false, false, true},
	}

	for _, c := range cases {
		shift := &ShiftAssignment{Status: c.status}
		assert.Equal(t, c.canAdjust, shift.CanAdjust(), "CanAdjust(%s)", c.status)
		assert.Equal(t, c.canApprove, shift.CanApprove(), "CanApprove(%s)", c.status)
		assert.Equal(t, c.canPublish, shift.CanPublish(), "CanPublish(%s)", c.status)
		assert.Equal(t, c.canReject, shift.CanReject(), "CanReject(%s)", c.status)
		assert.Equal(t, c.canRevise, shift.CanRevise(), "CanRevise(%s)", c.status)
	}
}

func TestRoleMeets(t *testing.T) {
	assert.True(t, RoleAdmin.Meets(RoleManager))
	assert.True(t, RoleManager.Meets(RoleManager))
	assert.True(t, RoleManager.Meets(RoleSubManager))
	assert.True(t, RoleSubManager.Meets(RoleStaff))
	assert.False(t, RoleSubManager.Meets(RoleManager))
	assert.False(t, RoleStaff.Meets(RoleEvaluator))

	// 未知角色既不能满足任何要求，也不能作为要求被满足
	assert.False(t, Role("SUPERVISOR").Meets(RoleStaff))
	assert.False(t, RoleAdmin.Meets(Role("SUPERVISOR")))
}

func TestIntervalHours(t *testing.T) {
	assert.InDelta(t, 8.0, IntervalHours("09:00", "17:00"), 1e-9)
	assert.InDelta(t, 2.5, IntervalHours("18:30", "21:00"), 1e-9)

	// 跨天的班次自动加一天
	assert.InDelta(t, 8.0, IntervalHours("22:00", "06:00"), 1e-9)

	assert.InDelta(t, 0.0, IntervalHours("bad", "17:00"), 1e-9)
}

func TestPreferenceWeight(t *testing.T) {
	assert.Equal(t, int32(3), (&PreferenceEntry{Priority: 1}).Weight())
	assert.Equal(t, int32(2), (&PreferenceEntry{Priority: 2}).Weight())
	assert.Equal(t, int32(1), (&PreferenceEntry{Priority: 3}).Weight())

	// 越界的优先级不会产生小于 1 的权重
	assert.Equal(t, int32(1), (&PreferenceEntry{Priority: 9}).Weight())
}

func TestNewRevisionEntry(t *testing.T) {
	reason := "临时调换"
	entry := NewRevisionEntry(7, "status", ShiftDraft, ShiftAdjusted, 3, reason)
	assert.Equal(t, int64(7), entry.ShiftID)
	assert.Equal(t, "status", entry.FieldName)
	assert.Equal(t, "DRAFT", entry.OldValue)
	assert.Equal(t, "ADJUSTED", entry.NewValue)
	assert.Equal(t, int64(3), entry.ChangedBy)
	assert.Equal(t, reason, entry.Reason)

	old := "人手不足"
	entry = NewRevisionEntry(7, "rejection_reason", &old, "", 3, "")
	assert.Equal(t, "人手不足", entry.OldValue)
	assert.Equal(t, "", entry.NewValue)

	var nilReason *string
	entry = NewRevisionEntry(7, "rejection_reason", nilReason, "排班冲突", 3, "排班冲突")
	assert.Equal(t, "", entry.OldValue)
	assert.Equal(t, "排班冲突", entry.NewValue)
}
