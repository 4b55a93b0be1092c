package model

import (
	"time"
)

// InterestStatus 意向状态
type InterestStatus string

const (
	InterestPending  InterestStatus = "pending"
	InterestAccepted InterestStatus = "accepted"
	InterestDeclined InterestStatus = "declined"
)

// Valid 是否为合法的状态值
func (s InterestStatus) Valid() bool {
	switch s {
	case InterestPending, InterestAccepted, InterestDeclined:
		return true
	}
	return false
}

// IsResponse 是否为对方可给出的回复状态
func (s InterestStatus) IsResponse() bool {
	return s == InterestAccepted || s == InterestDeclined
}

// Interest 意向记录（有向：From -> To）
// 唯一约束：同一有序对 (from_profile_id, to_profile_id) 至多一条
// 双向均为 accepted 时构成互相匹配，匹配关系不落库
type Interest struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	FromProfileID   string         `gorm:"type:varchar(50);not null;uniqueIndex:uniq_interest_pair,priority:1;comment:发起方资料ID" json:"from_profile_id"`
	ToProfileID     string         `gorm:"type:varchar(50);not null;uniqueIndex:uniq_interest_pair,priority:2;index;comment:接收方资料ID" json:"to_profile_id"`
	Status          InterestStatus `gorm:"type:varchar(16);not null;default:'pending';index;comment:状态" json:"status"`
	RequestMessage  string         `gorm:"type:varchar(200);not null;default:'';comment:请求留言" json:"request_message"`
	ResponseMessage string         `gorm:"type:varchar(200);not null;default:'';comment:回复留言" json:"response_message"`
	CreatedAt       time.Time      `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"comment:更新时间" json:"updated_at"`
}

func (Interest) TableName() string { return "interest" }
