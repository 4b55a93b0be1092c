package model

import (
	"time"
)

// Shortlist 收藏关系，同一有序对唯一
type Shortlist struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ShortlistedByPID string    `gorm:"column:shortlisted_by_pid;type:varchar(50);not null;uniqueIndex:uniq_shortlist_pair,priority:1;comment:收藏者资料ID" json:"shortlisted_by_pid"`
	ShortlistedPID   string    `gorm:"column:shortlisted_pid;type:varchar(50);not null;uniqueIndex:uniq_shortlist_pair,priority:2;index;comment:被收藏资料ID" json:"shortlisted_pid"`
	ShortlistedAt    time.Time `gorm:"autoCreateTime;comment:收藏时间" json:"shortlisted_at"`
}

func (Shortlist) TableName() string { return "shortlist" }
