package repository

import (
	"context"
	"fmt"
	"time"

	"matchmaking/internal/model"

	"gorm.io/gorm"
)

// UpsertResult 一次 Upsert 对存储产生的效果
type UpsertResult int

const (
	// UpsertCreated 新插入一条 pending 记录
	UpsertCreated UpsertResult = iota + 1
	// UpsertReactivated declined 记录被重置为 pending
	UpsertReactivated
	// UpsertUnchanged 已存在 pending/accepted 记录，未做修改
	UpsertUnchanged
)

// upsertInterestSQL 单条语句完成"查找或创建/重置"
// MySQL 按书写顺序求值 ON DUPLICATE KEY UPDATE 的赋值，status 必须放在最后，
// 否则前面的 IF(status = 'declined', ...) 会读到已被改写的值
const upsertInterestSQL = `
INSERT INTO interest (from_profile_id, to_profile_id, status, request_message, response_message, created_at, updated_at)
VALUES (?, ?, 'pending', ?, '', ?, ?)
ON DUPLICATE KEY UPDATE
	request_message  = IF(status = 'declined', VALUES(request_message), request_message),
	response_message = IF(status = 'declined', '', response_message),
	updated_at       = IF(status = 'declined', VALUES(updated_at), updated_at),
	status           = IF(status = 'declined', 'pending', status)`

// InterestFilter 意向列表查询条件
type InterestFilter struct {
	FromProfileID string
	ToProfileID   string
	Status        model.InterestStatus
	Page          Page
}

// InterestRepository 意向数据仓储
type InterestRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewInterestRepository 创建InterestRepository实例
func NewInterestRepository(db *gorm.DB) *InterestRepository {
	return &InterestRepository{db: db, now: time.Now}
}

// Upsert 对有序对 (from, to) 原子地执行创建或重新激活
// 依赖唯一索引 uniq_interest_pair，并发调用至多插入一行
func (r *InterestRepository) Upsert(ctx context.Context, from, to, message string) (*model.Interest, UpsertResult, error) {
	now := r.now()
	res := r.db.WithContext(ctx).Exec(upsertInterestSQL, from, to, message, now, now)
	if res.Error != nil {
		return nil, 0, fmt.Errorf("upsert interest: %w", translate(res.Error))
	}

	// 受影响行数：1 插入，2 更新了已有行，0 已有行保持不变
	var result UpsertResult
	switch res.RowsAffected {
	case 1:
		result = UpsertCreated
	case 2:
		result = UpsertReactivated
	default:
		result = UpsertUnchanged
	}

	interest, err := r.FindByPair(ctx, from, to)
	if err != nil {
		return nil, 0, err
	}
	return interest, result, nil
}

// GetByID 根据ID获取意向
func (r *InterestRepository) GetByID(ctx context.Context, id uint) (*model.Interest, error) {
	var interest model.Interest
	if err := r.db.WithContext(ctx).First(&interest, id).Error; err != nil {
		return nil, translate(err)
	}
	return &interest, nil
}

// FindByPair 按有序对查询意向
func (r *InterestRepository) FindByPair(ctx context.Context, from, to string) (*model.Interest, error) {
	var interest model.Interest
	err := r.db.WithContext(ctx).
		Where("from_profile_id = ? AND to_profile_id = ?", from, to).
		First(&interest).Error
	if err != nil {
		return nil, translate(err)
	}
	return &interest, nil
}

// Respond 条件更新：仅当记录属于 responder 且仍为 pending 时写入回复
// 返回是否命中
func (r *InterestRepository) Respond(ctx context.Context, id uint, responder string, status model.InterestStatus, message string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Interest{}).
		Where("id = ? AND to_profile_id = ? AND status = ?", id, responder, model.InterestPending).
		Updates(map[string]interface{}{
			"status":           status,
			"response_message": message,
			"updated_at":       r.now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("respond interest: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Delete 删除由 from 发起的意向，返回是否命中
func (r *InterestRepository) Delete(ctx context.Context, id uint, from string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND from_profile_id = ?", id, from).
		Delete(&model.Interest{})
	if res.Error != nil {
		return false, fmt.Errorf("delete interest: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AcceptedTargets 返回 from 发出且已被接受的意向目标
func (r *InterestRepository) AcceptedTargets(ctx context.Context, from string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Interest{}).
		Where("from_profile_id = ? AND status = ?", from, model.InterestAccepted).
		Pluck("to_profile_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list accepted targets: %w", err)
	}
	return ids, nil
}

// AcceptedSenders 在 candidates 中筛出向 to 发出且已被接受意向的资料
func (r *InterestRepository) AcceptedSenders(ctx context.Context, to string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Interest{}).
		Where("to_profile_id = ? AND status = ? AND from_profile_id IN ?", to, model.InterestAccepted, candidates).
		Pluck("from_profile_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list accepted senders: %w", err)
	}
	return ids, nil
}

// List 分页查询意向，按更新时间倒序
func (r *InterestRepository) List(ctx context.Context, filter InterestFilter) ([]model.Interest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Interest{})
	if filter.FromProfileID != "" {
		query = query.Where("from_profile_id = ?", filter.FromProfileID)
	}
	if filter.ToProfileID != "" {
		query = query.Where("to_profile_id = ?", filter.ToProfileID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count interests: %w", err)
	}

	page := filter.Page.Normalize()
	var interests []model.Interest
	err := query.Order("updated_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&interests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list interests: %w", err)
	}
	return interests, total, nil
}
