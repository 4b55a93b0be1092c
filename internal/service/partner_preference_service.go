package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
)

// PartnerPreferenceStore 择偶偏好存储
type PartnerPreferenceStore interface {
	Upsert(ctx context.Context, pref *model.PartnerPreference) error
	GetByEmail(ctx context.Context, email string) (*model.PartnerPreference, error)
	DeleteByEmail(ctx context.Context, email string) (bool, error)
}

type PartnerPreferenceService struct {
	store PartnerPreferenceStore
	now   func() time.Time
}

func NewPartnerPreferenceService(store PartnerPreferenceStore) *PartnerPreferenceService {
	return &PartnerPreferenceService{store: store, now: time.Now}
}

// Save 新增或覆盖邮箱对应的择偶偏好
func (s *PartnerPreferenceService) Save(ctx context.Context, pref *model.PartnerPreference) (*model.PartnerPreference, error) {
	email, err := normalizeEmail(pref.Email)
	if err != nil {
		return nil, err
	}
	pref.Email = email
	pref.MarryAnyCaste = strings.ToUpper(strings.TrimSpace(pref.MarryAnyCaste))
	if pref.MarryAnyCaste == "" {
		pref.MarryAnyCaste = "U"
	}
	if pref.MarryAnyCaste != "Y" && pref.MarryAnyCaste != "N" && pref.MarryAnyCaste != "U" {
		return nil, invalidf("marry_any_caste must be Y, N or U")
	}
	required := []struct{ field, value string }{
		{"age", pref.Age},
		{"marital_status", pref.MaritalStatus},
		{"religion", pref.Religion},
		{"caste", pref.Caste},
		{"occupation", pref.Occupation},
		{"residing_country", pref.ResidingCountry},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, invalidf("%s is required", r.field)
		}
	}

	now := s.now()
	pref.ID = 0
	pref.CreatedAt = now
	pref.UpdatedAt = now
	if err := s.store.Upsert(ctx, pref); err != nil {
		return nil, storageErr(err)
	}
	return s.Get(ctx, email)
}

// Get 按邮箱获取择偶偏好
func (s *PartnerPreferenceService) Get(ctx context.Context, email string) (*model.PartnerPreference, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	pref, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundf("partner preference for %s", email)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return pref, nil
}

// Delete 删除择偶偏好
func (s *PartnerPreferenceService) Delete(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	ok, err := s.store.DeleteByEmail(ctx, email)
	if err != nil {
		return storageErr(err)
	}
	if !ok {
		return notFoundf("partner preference for %s", email)
	}
	return nil
}
