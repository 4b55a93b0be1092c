package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"matchmaking/internal/model"

	"gorm.io/gorm"
)

// ProfileFilter 资料检索条件
// 字段均为可选：文本字段做不区分大小写的包含匹配，枚举字段做等值匹配，
// 年龄区间换算为出生日期区间
type ProfileFilter struct {
	FirstName     string
	LastName      string
	Sex           string
	MaritalStatus string
	Religion      string
	Caste         string
	SubCaste      string
	MotherTongue  string
	Manglik       string
	Star          string
	Raashi        string
	Education     string
	Occupation    string
	WorkingWith   string
	City          string
	State         string
	Country       string
	EatingHabit   string
	AgeMin        int
	AgeMax        int
	// SearchText 在姓名、邮箱、城市、学历、职业中做模糊匹配
	SearchText string
	// ExcludeProfileID 排除调用者自己的资料
	ExcludeProfileID string
	Page             Page
}

// ProfileStats 仪表盘统计
type ProfileStats struct {
	Total      int64 `json:"total"`
	Male       int64 `json:"male"`
	Female     int64 `json:"female"`
	NewLast24h int64 `json:"new_last_24h"`
}

// ProfileRepository 资料数据仓储
type ProfileRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProfileRepository 创建ProfileRepository实例
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db, now: time.Now}
}

// Create 创建资料
func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("create profile: %w", translate(err))
	}
	return nil
}

// Exists 资料是否存在
func (r *ProfileRepository) Exists(ctx context.Context, profileID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("profile_id = ?", profileID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check profile exists: %w", err)
	}
	return count > 0, nil
}

// GetByProfileID 根据资料ID获取
func (r *ProfileRepository) GetByProfileID(ctx context.Context, profileID string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// GetByUserID 根据账号ID获取资料
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// GetByProfileIDs 批量获取资料
func (r *ProfileRepository) GetByProfileIDs(ctx context.Context, profileIDs []string) ([]model.Profile, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	var profiles []model.Profile
	err := r.db.WithContext(ctx).
		Where("profile_id IN ?", profileIDs).
		Order("updated_at DESC").
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	return profiles, nil
}

// Update 保存资料的全部可编辑字段
func (r *ProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	err := r.db.WithContext(ctx).Model(profile).
		Select("*").
		Omit("id", "profile_id", "user_id", "created_at").
		Updates(profile).Error
	if err != nil {
		return fmt.Errorf("update profile: %w", translate(err))
	}
	return nil
}

// Delete 在同一事务内删除资料及其照片、浏览记录、意向、收藏、消息，并解除账号关联
func (r *ProfileRepository) Delete(ctx context.Context, profileID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("profile_id = ?", profileID).Delete(&model.Profile{})
		if res.Error != nil {
			return fmt.Errorf("delete profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("profile_id = ?", profileID).Delete(&model.ProfilePhoto{}).Error; err != nil {
			return fmt.Errorf("delete profile photos: %w", err)
		}
		if err := tx.Where("viewer_profile_id = ? OR viewed_profile_id = ?", profileID, profileID).
			Delete(&model.ProfileViewLog{}).Error; err != nil {
			return fmt.Errorf("delete profile views: %w", err)
		}
		if err := tx.Where("from_profile_id = ? OR to_profile_id = ?", profileID, profileID).
			Delete(&model.Interest{}).Error; err != nil {
			return fmt.Errorf("delete profile interests: %w", err)
		}
		if err := tx.Where("shortlisted_by_pid = ? OR shortlisted_pid = ?", profileID, profileID).
			Delete(&model.Shortlist{}).Error; err != nil {
			return fmt.Errorf("delete profile shortlist: %w", err)
		}
		// 消息按软删除建模，资料注销时物理删除双方会话
		if err := tx.Unscoped().Where("sender_profile_id = ? OR receiver_profile_id = ?", profileID, profileID).
			Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("delete profile messages: %w", err)
		}
		if err := tx.Model(&model.User{}).Where("profile_id = ?", profileID).
			Update("profile_id", nil).Error; err != nil {
			return fmt.Errorf("unlink profile account: %w", err)
		}
		return nil
	})
}

// Search 按 ProfileFilter 分页检索
func (r *ProfileRepository) Search(ctx context.Context, filter ProfileFilter) ([]model.Profile, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.Profile{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	page := filter.Page.Normalize()
	var profiles []model.Profile
	err := query.Order("updated_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search profiles: %w", err)
	}
	return profiles, total, nil
}

// applyFilter 把枚举好的过滤字段翻译为查询条件，字段名固定，值全部参数化
func (r *ProfileRepository) applyFilter(query *gorm.DB, f ProfileFilter) *gorm.DB {
	like := func(q *gorm.DB, column, value string) *gorm.DB {
		value = strings.TrimSpace(value)
		if value == "" {
			return q
		}
		return q.Where(column+" LIKE ?", "%"+escapeLike(value)+"%")
	}
	equal := func(q *gorm.DB, column, value string) *gorm.DB {
		value = strings.TrimSpace(value)
		if value == "" {
			return q
		}
		return q.Where(column+" = ?", value)
	}

	if f.ExcludeProfileID != "" {
		query = query.Where("profile_id <> ?", f.ExcludeProfileID)
	}

	query = like(query, "first_name", f.FirstName)
	query = like(query, "last_name", f.LastName)
	query = like(query, "religion", f.Religion)
	query = like(query, "caste", f.Caste)
	query = like(query, "sub_caste", f.SubCaste)
	query = like(query, "mother_tongue", f.MotherTongue)
	query = like(query, "star", f.Star)
	query = like(query, "raashi", f.Raashi)
	query = like(query, "education", f.Education)
	query = like(query, "occupation", f.Occupation)
	query = like(query, "working_with", f.WorkingWith)
	query = like(query, "city", f.City)
	query = like(query, "state", f.State)
	query = like(query, "country", f.Country)
	query = equal(query, "sex", strings.ToUpper(f.Sex))
	query = equal(query, "marital_status", f.MaritalStatus)
	query = equal(query, "manglik", strings.ToUpper(f.Manglik))
	query = equal(query, "eating_habit", f.EatingHabit)

	if f.AgeMin > 0 || f.AgeMax > 0 {
		from, to := DOBRange(r.now(), f.AgeMin, f.AgeMax)
		if !from.IsZero() {
			query = query.Where("dob >= ?", from)
		}
		if !to.IsZero() {
			query = query.Where("dob <= ?", to)
		}
	}

	if text := strings.TrimSpace(f.SearchText); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR city LIKE ? OR state LIKE ? OR education LIKE ? OR occupation LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}
	return query
}

// DOBRange 将年龄区间换算为出生日期区间，0 表示该端不限
// 年龄 a 对应出生在 (now - a - 1 年, now - a 年] 之间
func DOBRange(now time.Time, ageMin, ageMax int) (from, to time.Time) {
	if ageMin > 0 {
		to = now.AddDate(-ageMin, 0, 0)
	}
	if ageMax > 0 {
		from = now.AddDate(-ageMax-1, 0, 1)
	}
	return from, to
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Stats 统计资料总数、性别分布与24小时新增
func (r *ProfileRepository) Stats(ctx context.Context) (*ProfileStats, error) {
	var stats ProfileStats
	db := r.db.WithContext(ctx).Model(&model.Profile{})
	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("sex = ?", "M").Count(&stats.Male).Error; err != nil {
		return nil, fmt.Errorf("count male profiles: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("sex = ?", "F").Count(&stats.Female).Error; err != nil {
		return nil, fmt.Errorf("count female profiles: %w", err)
	}
	since := r.now().Add(-24 * time.Hour)
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Where("created_at >= ?", since).Count(&stats.NewLast24h).Error; err != nil {
		return nil, fmt.Errorf("count new profiles: %w", err)
	}
	return &stats, nil
}

// AddPhotos 记录已上传的照片
func (r *ProfileRepository) AddPhotos(ctx context.Context, photos []model.ProfilePhoto) error {
	if len(photos) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&photos).Error; err != nil {
		return fmt.Errorf("add photos: %w", err)
	}
	return nil
}

// ListPhotos 获取资料的照片
func (r *ProfileRepository) ListPhotos(ctx context.Context, profileID string) ([]model.ProfilePhoto, error) {
	var photos []model.ProfilePhoto
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

// RecordView 记录一次资料浏览
func (r *ProfileRepository) RecordView(ctx context.Context, viewer, viewed string) (*model.ProfileViewLog, error) {
	view := &model.ProfileViewLog{
		ViewerProfileID: viewer,
		ViewedProfileID: viewed,
		ViewedAt:        r.now(),
	}
	if err := r.db.WithContext(ctx).Create(view).Error; err != nil {
		return nil, fmt.Errorf("record view: %w", err)
	}
	return view, nil
}

// ListViewers 获取浏览过某资料的记录，最近的在前
func (r *ProfileRepository) ListViewers(ctx context.Context, viewed string, page Page) ([]model.ProfileViewLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ProfileViewLog{}).Where("viewed_profile_id = ?", viewed)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count views: %w", err)
	}

	page = page.Normalize()
	var views []model.ProfileViewLog
	err := query.Order("viewed_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&views).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list views: %w", err)
	}
	return views, total, nil
}
