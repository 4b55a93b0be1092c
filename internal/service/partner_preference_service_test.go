package service

import (
	"context"
	"testing"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPreferenceStore struct {
	byEmail map[string]model.PartnerPreference
}

func (m *memoryPreferenceStore) Upsert(_ context.Context, pref *model.PartnerPreference) error {
	if m.byEmail == nil {
		m.byEmail = make(map[string]model.PartnerPreference)
	}
	if existing, ok := m.byEmail[pref.Email]; ok {
		pref.ID = existing.ID
		pref.CreatedAt = existing.CreatedAt
	} else {
		pref.ID = uint(len(m.byEmail) + 1)
	}
	m.byEmail[pref.Email] = *pref
	return nil
}

func (m *memoryPreferenceStore) GetByEmail(_ context.Context, email string) (*model.PartnerPreference, error) {
	pref, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pref, nil
}

func (m *memoryPreferenceStore) DeleteByEmail(_ context.Context, email string) (bool, error) {
	if _, ok := m.byEmail[email]; !ok {
		return false, nil
	}
	delete(m.byEmail, email)
	return true, nil
}

func validPreference(email string) *model.PartnerPreference {
	return &model.PartnerPreference{
		Email:           email,
		Age:             "25-30",
		MaritalStatus:   "Never Married",
		Religion:        "Hindu",
		Caste:           "Any",
		Occupation:      "Engineer",
		ResidingCountry: "India",
	}
}

func TestPartnerPreferenceSaveIsUpsert(t *testing.T) {
	svc := NewPartnerPreferenceService(&memoryPreferenceStore{})
	ctx := context.Background()

	saved, err := svc.Save(ctx, validPreference("Pref@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, "pref@example.com", saved.Email)
	assert.Equal(t, "U", saved.MarryAnyCaste)

	update := validPreference("pref@example.com")
	update.Age = "28-35"
	update.MarryAnyCaste = "y"
	again, err := svc.Save(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	assert.Equal(t, "28-35", again.Age)
	assert.Equal(t, "Y", again.MarryAnyCaste)

	require.NoError(t, svc.Delete(ctx, "pref@example.com"))
	_, err = svc.Get(ctx, "pref@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "pref@example.com"), ErrNotFound)
}

func TestPartnerPreferenceValidation(t *testing.T) {
	svc := NewPartnerPreferenceService(&memoryPreferenceStore{})

	missing := validPreference("a@example.com")
	missing.Religion = ""
	_, err := svc.Save(context.Background(), missing)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	badFlag := validPreference("a@example.com")
	badFlag.MarryAnyCaste = "maybe"
	_, err = svc.Save(context.Background(), badFlag)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
