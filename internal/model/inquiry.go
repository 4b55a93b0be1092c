package model

import (
	"time"
)

// Inquiry 咨询留言
type Inquiry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	InquiryFrom string    `gorm:"type:varchar(250);not null;index;comment:咨询人" json:"inquiry_from"`
	InquiryFor  string    `gorm:"type:varchar(250);not null;index;comment:咨询对象" json:"inquiry_for"`
	Message     string    `gorm:"type:text;not null;comment:留言内容" json:"message"`
	CreatedAt   time.Time `gorm:"index;comment:咨询时间" json:"created_at"`
}

func (Inquiry) TableName() string { return "inquiry" }
