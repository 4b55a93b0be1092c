package repository

import (
	"context"
	"fmt"

	"matchmaking/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerPreferenceRepository 择偶偏好数据仓储
type PartnerPreferenceRepository struct {
	db *gorm.DB
}

func NewPartnerPreferenceRepository(db *gorm.DB) *PartnerPreferenceRepository {
	return &PartnerPreferenceRepository{db: db}
}

// Upsert 按邮箱新增或覆盖
func (r *PartnerPreferenceRepository) Upsert(ctx context.Context, pref *model.PartnerPreference) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"age", "marital_status", "body_type", "complexion", "height",
			"eating_habit", "manglik", "religion", "caste", "marry_any_caste",
			"mother_tongue", "education", "occupation",
			"residing_country", "residing_state", "residing_city", "updated_at",
		}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("upsert partner preference: %w", err)
	}
	return nil
}

func (r *PartnerPreferenceRepository) GetByEmail(ctx context.Context, email string) (*model.PartnerPreference, error) {
	var pref model.PartnerPreference
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&pref).Error; err != nil {
		return nil, translate(err)
	}
	return &pref, nil
}

func (r *PartnerPreferenceRepository) DeleteByEmail(ctx context.Context, email string) (bool, error) {
	res := r.db.WithContext(ctx).Where("email = ?", email).Delete(&model.PartnerPreference{})
	if res.Error != nil {
		return false, fmt.Errorf("delete partner preference: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
