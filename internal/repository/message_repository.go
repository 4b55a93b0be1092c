package repository

import (
	"context"
	"fmt"

	"matchmaking/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 消息数据仓储
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建MessageRepository实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建消息
func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// GetByID 根据ID获取消息
func (r *MessageRepository) GetByID(ctx context.Context, id uint) (*model.Message, error) {
	var message model.Message
	if err := r.db.WithContext(ctx).First(&message, id).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

// GetConversation 获取两份资料之间的消息（双向），按时间升序
func (r *MessageRepository) GetConversation(ctx context.Context, a, b string, page Page) ([]model.Message, error) {
	page = page.Normalize()
	var messages []model.Message
	err := r.db.WithContext(ctx).Where(
		"(sender_profile_id = ? AND receiver_profile_id = ?) OR (sender_profile_id = ? AND receiver_profile_id = ?)",
		a, b, b, a,
	).
		Order("created_at ASC").
		Order("id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return messages, nil
}

// DeleteMessage 删除消息（软删除），只能删除自己发送的消息
func (r *MessageRepository) DeleteMessage(ctx context.Context, messageID uint, senderProfileID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND sender_profile_id = ?", messageID, senderProfileID).
		Delete(&model.Message{})
	if res.Error != nil {
		return false, fmt.Errorf("delete message: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
