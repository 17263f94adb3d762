package domain

import (
	"fmt"
	"strings"
)

// 核心操作的错误全部是带上下文字段的结构化错误
// 调用方用 errors.As 区分种类，任何失败都不允许部分提交

// InfeasibleScheduleError 表示排班器无法在满足全部硬约束的前提下生成排班
type InfeasibleScheduleError struct {
	ViolatedConstraints []string
}

func (e *InfeasibleScheduleError) Error() string {
	return fmt.Sprintf("无法生成可行的排班，违反的约束: %s", strings.Join(e.ViolatedConstraints, "; "))
}

// InvalidTransitionError 表示状态机前置条件不满足（状态不对或者权限不足）
type InvalidTransitionError struct {
	From         ShiftStatus
	Event        string
	RequiredRole Role
}

func (e *InvalidTransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("操作 %s 需要 %s 及以上的角色", e.Event, e.RequiredRole)
	}
	return fmt.Sprintf("状态 %s 不允许执行 %s（需要 %s 及以上的角色）", e.From, e.Event, e.RequiredRole)
}

// GroupNotReadyError 表示 publish 时组内还有未 APPROVED 的班次，此时不允许改动任何记录
type GroupNotReadyError struct {
	GroupID        string
	PendingMembers []int64
}

func (e *GroupNotReadyError) Error() string {
	return fmt.Sprintf("班次组 %s 中还有 %d 个班次未通过审批，无法公开", e.GroupID, len(e.PendingMembers))
}

// VersionConflictError 表示并发修改被乐观锁拦下，调用方需要重新读取后重试
type VersionConflictError struct {
	ShiftID  int64
	Expected int32
	Actual   int32
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("班次 %d 已被其他人修改（期望版本 %d，实际版本 %d）", e.ShiftID, e.Expected, e.Actual)
}

// StorageUnavailableError 表示存储层基础设施故障（连接断开、超时等）
// 本次请求失败，但调用方可以安全重试；业务性的结果（未命中、约束冲突）不会被包成这一类
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("存储暂时不可用（%s）: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("字段 %s 不合法: %s", e.Field, e.Reason)
}
