package repository

import (
	"context"
	"fmt"

	"matchmaking/internal/model"

	"gorm.io/gorm"
)

// ShortlistRepository 收藏数据仓储
type ShortlistRepository struct {
	db *gorm.DB
}

// NewShortlistRepository 创建ShortlistRepository实例
func NewShortlistRepository(db *gorm.DB) *ShortlistRepository {
	return &ShortlistRepository{db: db}
}

// Create 新增收藏，重复收藏返回 ErrDuplicate
func (r *ShortlistRepository) Create(ctx context.Context, item *model.Shortlist) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Delete 取消收藏，返回是否命中
func (r *ShortlistRepository) Delete(ctx context.Context, by, target string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("shortlisted_by_pid = ? AND shortlisted_pid = ?", by, target).
		Delete(&model.Shortlist{})
	if res.Error != nil {
		return false, fmt.Errorf("delete shortlist: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListByOwner 分页获取某资料的收藏列表
func (r *ShortlistRepository) ListByOwner(ctx context.Context, by string, page Page) ([]model.Shortlist, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Shortlist{}).Where("shortlisted_by_pid = ?", by)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count shortlist: %w", err)
	}

	page = page.Normalize()
	var items []model.Shortlist
	err := query.Order("shortlisted_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list shortlist: %w", err)
	}
	return items, total, nil
}
