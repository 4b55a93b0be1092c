package model

import (
	"time"
)

// 账号角色
const (
	RoleAdmin   = "A"
	RoleUser    = "U"
	RolePremium = "P"
)

// 账号状态
const (
	UserStatusActive   = "A"
	UserStatusInactive = "I"
)

// User 账号模型
// 索引与唯一约束：邮箱唯一
// 说明：密码仅存储哈希（PasswordHash），不存储明文
// ProfileID 在用户创建资料后回填，一个账号至多一份资料
type User struct {
	ID           uint       `gorm:"primaryKey"`
	Username     string     `gorm:"type:varchar(64);comment:用户名"`
	Email        string     `gorm:"type:varchar(128);not null;uniqueIndex;comment:邮箱"`
	PasswordHash string     `gorm:"type:varchar(255);not null;comment:密码哈希"`
	Name         string     `gorm:"type:varchar(128);comment:姓名"`
	Phone        string     `gorm:"type:varchar(32);comment:手机号"`
	Role         string     `gorm:"type:varchar(1);not null;default:'U';comment:角色(A管理员,U普通,P付费)"`
	Status       string     `gorm:"type:varchar(1);not null;default:'A';comment:状态(A启用,I停用)"`
	ProfileID    *string    `gorm:"type:varchar(50);uniqueIndex;comment:资料ID"`
	LastLogin    *time.Time `gorm:"comment:最近登录时间"`
	CreatedAt    time.Time  `gorm:"comment:创建时间"`
	UpdatedAt    time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名（因全局配置使用单数表名，这里与结构体名一致为 user）
func (User) TableName() string { return "user" }

// IsActive 账号是否处于启用状态
func (u *User) IsActive() bool { return u.Status == UserStatusActive }

// HasProfile 是否已创建资料
func (u *User) HasProfile() bool { return u.ProfileID != nil && *u.ProfileID != "" }
