package repository

import (
	"context"
	"fmt"

	"matchmaking/internal/model"

	"gorm.io/gorm"
)

// InquiryRepository 咨询数据仓储
type InquiryRepository struct {
	db *gorm.DB
}

func NewInquiryRepository(db *gorm.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

func (r *InquiryRepository) Create(ctx context.Context, inquiry *model.Inquiry) error {
	if err := r.db.WithContext(ctx).Create(inquiry).Error; err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// List 按咨询人/咨询对象过滤，最新的在前
func (r *InquiryRepository) List(ctx context.Context, from, forWhom string, page Page) ([]model.Inquiry, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Inquiry{})
	if from != "" {
		query = query.Where("inquiry_from = ?", from)
	}
	if forWhom != "" {
		query = query.Where("inquiry_for = ?", forWhom)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}

	page = page.Normalize()
	var items []model.Inquiry
	err := query.Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}
	return items, total, nil
}

func (r *InquiryRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Inquiry{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete inquiry: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
