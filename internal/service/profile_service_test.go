package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"matchmaking/config"
	"matchmaking/internal/model"
	"matchmaking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProfileStore struct {
	mu       sync.Mutex
	nextID   uint
	profiles map[string]*model.Profile
	photos   []model.ProfilePhoto
	views    []model.ProfileViewLog
	deleted  []string
}

func newMemoryProfileStore() *memoryProfileStore {
	return &memoryProfileStore{profiles: make(map[string]*model.Profile)}
}

func (m *memoryProfileStore) Create(_ context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if existing.Email == p.Email || existing.UserID == p.UserID {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.profiles[p.ProfileID] = &cp
	return nil
}

func (m *memoryProfileStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.profiles[id]
	return ok, nil
}

func (m *memoryProfileStore) GetByProfileID(_ context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryProfileStore) GetByUserID(_ context.Context, userID uint) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryProfileStore) GetByProfileIDs(_ context.Context, ids []string) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Profile
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memoryProfileStore) Update(_ context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ProfileID] = &cp
	return nil
}

func (m *memoryProfileStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.profiles, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryProfileStore) Search(_ context.Context, f repository.ProfileFilter) ([]model.Profile, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Profile
	for _, p := range m.profiles {
		if f.ExcludeProfileID != "" && p.ProfileID == f.ExcludeProfileID {
			continue
		}
		if f.Sex != "" && !strings.EqualFold(p.Sex, f.Sex) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memoryProfileStore) Stats(_ context.Context) (*repository.ProfileStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repository.ProfileStats{Total: int64(len(m.profiles))}
	for _, p := range m.profiles {
		switch p.Sex {
		case "M":
			stats.Male++
		case "F":
			stats.Female++
		}
	}
	return stats, nil
}

func (m *memoryProfileStore) AddPhotos(_ context.Context, photos []model.ProfilePhoto) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos = append(m.photos, photos...)
	return nil
}

func (m *memoryProfileStore) ListPhotos(_ context.Context, id string) ([]model.ProfilePhoto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ProfilePhoto
	for _, p := range m.photos {
		if p.ProfileID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProfileStore) RecordView(_ context.Context, viewer, viewed string) (*model.ProfileViewLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := model.ProfileViewLog{ID: uint(len(m.views) + 1), ViewerProfileID: viewer, ViewedProfileID: viewed, ViewedAt: time.Now()}
	m.views = append(m.views, v)
	return &v, nil
}

func (m *memoryProfileStore) ListViewers(_ context.Context, viewed string, _ repository.Page) ([]model.ProfileViewLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ProfileViewLog
	for _, v := range m.views {
		if v.ViewedProfileID == viewed {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

// memoryPhotos 对象存储桩
type memoryPhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryPhotos() *memoryPhotos {
	return &memoryPhotos{objects: make(map[string][]byte)}
}

func (m *memoryPhotos) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryPhotos) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example/" + key, nil
}

func (m *memoryPhotos) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *memoryPhotos) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type staticMatches map[string][]string

func (s staticMatches) FindMutualMatches(_ context.Context, id string) ([]string, error) {
	return s[id], nil
}

type profileFixture struct {
	svc     *ProfileService
	store   *memoryProfileStore
	users   *memoryUserStore
	photos  *memoryPhotos
	matches staticMatches
	ownerID uint
	otherID uint
	adminID uint
	ctx     context.Context
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	f := &profileFixture{
		store:   newMemoryProfileStore(),
		users:   newMemoryUserStore(),
		photos:  newMemoryPhotos(),
		matches: staticMatches{},
		ctx:     context.Background(),
	}
	for i, email := range []string{"owner@example.com", "other@example.com", "admin@example.com"} {
		u := &model.User{Email: email, Role: model.RoleUser, Status: model.UserStatusActive}
		if i == 2 {
			u.Role = model.RoleAdmin
		}
		require.NoError(t, f.users.Create(f.ctx, u))
	}
	f.ownerID, f.otherID, f.adminID = 1, 2, 3
	f.svc = NewProfileService(f.store, f.users, f.photos, f.matches, config.StorageConfig{MaxPhotos: 2, MaxPhotoBytes: 1024})
	return f
}

func sampleInput(email, sex string) ProfileInput {
	return ProfileInput{FirstName: "Asha", LastName: "Rao", Email: email, Sex: sex, City: "Pune"}
}

func TestCreateProfileLinksUser(t *testing.T) {
	f := newProfileFixture(t)

	p, err := f.svc.Create(f.ctx, f.ownerID, sampleInput("Asha@Example.com", "f"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ProfileID, "MP"))
	assert.Len(t, p.ProfileID, 18)
	assert.Equal(t, "F", p.Sex)
	assert.Equal(t, "asha@example.com", p.Email)
	assert.Equal(t, "Self", p.CreatedFor)

	u, err := f.users.GetByID(f.ctx, f.ownerID)
	require.NoError(t, err)
	require.True(t, u.HasProfile())
	assert.Equal(t, p.ProfileID, *u.ProfileID)

	pid, err := f.svc.ProfileIDForUser(f.ctx, f.ownerID)
	require.NoError(t, err)
	assert.Equal(t, p.ProfileID, pid)

	_, err = f.svc.Create(f.ctx, f.ownerID, sampleInput("second@example.com", "F"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateProfileValidation(t *testing.T) {
	f := newProfileFixture(t)
	tests := []struct {
		name  string
		input ProfileInput
	}{
		{"missing names", ProfileInput{Email: "a@example.com", Sex: "M"}},
		{"bad sex", sampleInput("a@example.com", "X")},
		{"bad email", sampleInput("nope", "M")},
		{"bad manglik", func() ProfileInput { in := sampleInput("a@example.com", "M"); in.Manglik = "maybe"; return in }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, f.ownerID, tt.input)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestProfileIDForUserWithoutProfile(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.svc.ProfileIDForUser(f.ctx, f.otherID)
	assert.ErrorIs(t, err, ErrProfileRequired)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileOwnership(t *testing.T) {
	f := newProfileFixture(t)
	p, err := f.svc.Create(f.ctx, f.ownerID, sampleInput("owner@example.com", "F"))
	require.NoError(t, err)

	in := sampleInput("owner@example.com", "F")
	in.City = "Mumbai"

	_, err = f.svc.Update(f.ctx, Actor{UserID: f.otherID, Role: model.RoleUser}, p.ProfileID, in)
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := f.svc.Update(f.ctx, Actor{UserID: f.ownerID, Role: model.RoleUser}, p.ProfileID, in)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", updated.City)

	in.City = "Delhi"
	updated, err = f.svc.Update(f.ctx, Actor{UserID: f.adminID, Role: model.RoleAdmin}, p.ProfileID, in)
	require.NoError(t, err)
	assert.Equal(t, "Delhi", updated.City)

	_, err = f.svc.Update(f.ctx, Actor{UserID: f.ownerID}, "MPMISSING", in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadPhotos(t *testing.T) {
	f := newProfileFixture(t)
	p, err := f.svc.Create(f.ctx, f.ownerID, sampleInput("owner@example.com", "F"))
	require.NoError(t, err)
	owner := Actor{UserID: f.ownerID, Role: model.RoleUser}

	photo := func(name, contentType string, size int) PhotoUpload {
		return PhotoUpload{Filename: name, ContentType: contentType, Size: int64(size), Body: bytes.NewReader(make([]byte, size))}
	}

	t.Run("rejects non images", func(t *testing.T) {
		_, err := f.svc.UploadPhotos(f.ctx, owner, p.ProfileID, []PhotoUpload{photo("a.txt", "text/plain", 10)})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("rejects oversized", func(t *testing.T) {
		_, err := f.svc.UploadPhotos(f.ctx, owner, p.ProfileID, []PhotoUpload{photo("a.jpg", "image/jpeg", 2048)})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("rejects too many", func(t *testing.T) {
		uploads := []PhotoUpload{photo("a.jpg", "image/jpeg", 1), photo("b.jpg", "image/jpeg", 1), photo("c.jpg", "image/jpeg", 1)}
		_, err := f.svc.UploadPhotos(f.ctx, owner, p.ProfileID, uploads)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("rejects other users", func(t *testing.T) {
		_, err := f.svc.UploadPhotos(f.ctx, Actor{UserID: f.otherID}, p.ProfileID, []PhotoUpload{photo("a.jpg", "image/jpeg", 1)})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("stores under profile prefix", func(t *testing.T) {
		urls, err := f.svc.UploadPhotos(f.ctx, owner, p.ProfileID, []PhotoUpload{photo("A.JPG", "image/jpeg", 100), photo("b.png", "image/png", 50)})
		require.NoError(t, err)
		require.Len(t, urls, 2)
		assert.True(t, strings.HasPrefix(urls[0], "https://cdn.example/profiles/"+p.ProfileID+"/"))
		assert.True(t, strings.HasSuffix(urls[0], ".jpg"))
		assert.Equal(t, 2, f.photos.len())

		detail, err := f.svc.Get(f.ctx, p.ProfileID)
		require.NoError(t, err)
		assert.Equal(t, urls, detail.Photos)
	})
}

func TestDeleteProfileCleansUp(t *testing.T) {
	f := newProfileFixture(t)
	p, err := f.svc.Create(f.ctx, f.ownerID, sampleInput("owner@example.com", "F"))
	require.NoError(t, err)
	owner := Actor{UserID: f.ownerID, Role: model.RoleUser}
	_, err = f.svc.UploadPhotos(f.ctx, owner, p.ProfileID, []PhotoUpload{{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: bytes.NewReader([]byte{1})}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(f.ctx, Actor{UserID: f.otherID}, p.ProfileID), ErrUnauthorized)

	require.NoError(t, f.svc.Delete(f.ctx, owner, p.ProfileID))
	assert.Equal(t, []string{p.ProfileID}, f.store.deleted)
	assert.Equal(t, 0, f.photos.len())

	_, err = f.svc.Get(f.ctx, p.ProfileID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSearchAndStats(t *testing.T) {
	f := newProfileFixture(t)
	a, err := f.svc.Create(f.ctx, f.ownerID, sampleInput("owner@example.com", "F"))
	require.NoError(t, err)
	b, err := f.svc.Create(f.ctx, f.otherID, sampleInput("other@example.com", "M"))
	require.NoError(t, err)

	items, total, err := f.svc.List(f.ctx, a.ProfileID, repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ProfileID, items[0].ProfileID)

	_, _, err = f.svc.Search(f.ctx, repository.ProfileFilter{AgeMin: 40, AgeMax: 30})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = f.svc.Search(f.ctx, repository.ProfileFilter{Sex: "Q"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	males, total, err := f.svc.Search(f.ctx, repository.ProfileFilter{Sex: "m"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ProfileID, males[0].ProfileID)

	stats, err := f.svc.Stats(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.Male)
	assert.EqualValues(t, 1, stats.Female)
}

func TestMutualMatchesAndViews(t *testing.T) {
	f := newProfileFixture(t)
	a, err := f.svc.Create(f.ctx, f.ownerID, sampleInput("owner@example.com", "F"))
	require.NoError(t, err)
	b, err := f.svc.Create(f.ctx, f.otherID, sampleInput("other@example.com", "M"))
	require.NoError(t, err)
	f.matches[a.ProfileID] = []string{b.ProfileID}

	matches, err := f.svc.MutualMatches(f.ctx, a.ProfileID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, b.ProfileID, matches[0].ProfileID)

	none, err := f.svc.MutualMatches(f.ctx, b.ProfileID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = f.svc.RecordView(f.ctx, a.ProfileID, a.ProfileID)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.svc.RecordView(f.ctx, a.ProfileID, "MPMISSING")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.RecordView(f.ctx, a.ProfileID, b.ProfileID)
	require.NoError(t, err)
	views, total, err := f.svc.ListViewers(f.ctx, b.ProfileID, repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, a.ProfileID, views[0].ViewerProfileID)
}
