package domain

import (
	"time"
)

type Role string

const (
	RoleStaff      Role = "STAFF"
	RoleEvaluator  Role = "EVALUATOR"
	RoleSubManager Role = "SUB_MANAGER"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
)

// 角色是一个有序集合，权限判断只依赖排序，不依赖继承
var roleRank = map[Role]int{
	RoleStaff:      1,
	RoleEvaluator:  2,
	RoleSubManager: 3,
	RoleManager:    4,
	RoleAdmin:      5,
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// Meets 判断该角色是否达到指定的最低角色要求，未知角色一律不通过
func (r Role) Meets(min Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	minRank, ok := roleRank[min]
	if !ok {
		return false
	}
	return rank >= minRank
}

type Worker struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	SkillLevel   *float64  `json:"skillLevel"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
