package model

import (
	"time"

	"gorm.io/gorm"
)

// Message 聊天消息
// 仅允许互相匹配的两份资料之间收发，先落库后推送
type Message struct {
	ID                uint           `gorm:"primaryKey"`
	SenderProfileID   string         `gorm:"type:varchar(50);not null;index:idx_message_pair,priority:1;comment:发送方资料ID"`
	ReceiverProfileID string         `gorm:"type:varchar(50);not null;index:idx_message_pair,priority:2;comment:接收方资料ID"`
	Text              string         `gorm:"type:text;not null;comment:消息内容"`
	CreatedAt         time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt         time.Time      `gorm:"comment:更新时间"`
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (Message) TableName() string { return "message" }
