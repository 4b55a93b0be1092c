package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"matchmaking/config"
	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/pkg/logger"
	"matchmaking/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileStore 资料存储，由 repository.ProfileRepository 实现
type ProfileStore interface {
	Create(ctx context.Context, profile *model.Profile) error
	Exists(ctx context.Context, profileID string) (bool, error)
	GetByProfileID(ctx context.Context, profileID string) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID uint) (*model.Profile, error)
	GetByProfileIDs(ctx context.Context, profileIDs []string) ([]model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
	Delete(ctx context.Context, profileID string) error
	Search(ctx context.Context, filter repository.ProfileFilter) ([]model.Profile, int64, error)
	Stats(ctx context.Context) (*repository.ProfileStats, error)
	AddPhotos(ctx context.Context, photos []model.ProfilePhoto) error
	ListPhotos(ctx context.Context, profileID string) ([]model.ProfilePhoto, error)
	RecordView(ctx context.Context, viewer, viewed string) (*model.ProfileViewLog, error)
	ListViewers(ctx context.Context, viewed string, page repository.Page) ([]model.ProfileViewLog, int64, error)
}

// ProfileLinker 回填账号上的资料ID
type ProfileLinker interface {
	SetProfileID(ctx context.Context, userID uint, profileID string) error
}

// PhotoStorage 照片对象存储，由 storage.S3Storage 实现
type PhotoStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// MatchFinder 互相匹配查询，由 InterestService 实现
type MatchFinder interface {
	FindMutualMatches(ctx context.Context, profileID string) ([]string, error)
}

// Actor 当前操作者
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// ProfileInput 资料可编辑字段
type ProfileInput struct {
	CreatedFor    string
	FirstName     string
	LastName      string
	Email         string
	Sex           string
	DOB           *time.Time
	MaritalStatus string
	Religion      string
	Caste         string
	SubCaste      string
	MotherTongue  string
	Star          string
	Raashi        string
	Manglik       string
	Height        string
	Education     string
	Occupation    string
	WorkingWith   string
	AnnualIncome  string
	EatingHabit   string
	Smoking       string
	Drinking      string
	City          string
	State         string
	Country       string
	Mobile        string
	About         string
}

// PhotoUpload 一张待上传的照片
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProfileDetail 资料及其照片地址
type ProfileDetail struct {
	Profile *model.Profile
	Photos  []string
}

type ProfileService struct {
	store   ProfileStore
	users   ProfileLinker
	photos  PhotoStorage
	matches MatchFinder
	limits  config.StorageConfig
	now     func() time.Time
}

func NewProfileService(store ProfileStore, users ProfileLinker, photos PhotoStorage, matches MatchFinder, limits config.StorageConfig) *ProfileService {
	if limits.MaxPhotos <= 0 {
		limits.MaxPhotos = 5
	}
	if limits.MaxPhotoBytes <= 0 {
		limits.MaxPhotoBytes = 10 << 20
	}
	return &ProfileService{
		store:   store,
		users:   users,
		photos:  photos,
		matches: matches,
		limits:  limits,
		now:     time.Now,
	}
}

// NewProfileID 生成 MP 前缀的资料ID
func NewProfileID() string {
	id := uuid.New()
	return "MP" + strings.ToUpper(fmt.Sprintf("%x", id[:8]))
}

// Exists 资料是否存在
func (s *ProfileService) Exists(ctx context.Context, profileID string) (bool, error) {
	ok, err := s.store.Exists(ctx, profileID)
	if err != nil {
		return false, storageErr(err)
	}
	return ok, nil
}

// Create 为账号创建资料，一个账号至多一份
func (s *ProfileService) Create(ctx context.Context, userID uint, in ProfileInput) (*model.Profile, error) {
	if err := validateProfileInput(&in); err != nil {
		return nil, err
	}

	if _, err := s.store.GetByUserID(ctx, userID); err == nil {
		return nil, conflictf("user already has a profile")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr(err)
	}

	profile := &model.Profile{ProfileID: NewProfileID(), UserID: userID, PaidMember: "N"}
	applyProfileInput(profile, in)
	if err := s.store.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictf("profile email %s is already in use", in.Email)
		}
		return nil, storageErr(err)
	}

	if err := s.users.SetProfileID(ctx, userID, profile.ProfileID); err != nil {
		// 回填失败时撤销资料，避免出现无主资料
		if delErr := s.store.Delete(ctx, profile.ProfileID); delErr != nil {
			logger.Error("撤销资料失败", zap.String("profile_id", profile.ProfileID), zap.Error(delErr))
		}
		return nil, storageErr(err)
	}

	logger.Info("资料创建成功", zap.Uint("user_id", userID), zap.String("profile_id", profile.ProfileID))
	return profile, nil
}

// Get 获取资料及照片地址
func (s *ProfileService) Get(ctx context.Context, profileID string) (*ProfileDetail, error) {
	profile, err := s.load(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &ProfileDetail{Profile: profile, Photos: s.photoURLs(ctx, profileID)}, nil
}

// ProfileIDForUser 获取账号对应的资料ID
func (s *ProfileService) ProfileIDForUser(ctx context.Context, userID uint) (string, error) {
	profile, err := s.store.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrProfileRequired
	}
	if err != nil {
		return "", storageErr(err)
	}
	return profile.ProfileID, nil
}

// Update 更新资料，仅本人或管理员
func (s *ProfileService) Update(ctx context.Context, actor Actor, profileID string, in ProfileInput) (*model.Profile, error) {
	if err := validateProfileInput(&in); err != nil {
		return nil, err
	}
	profile, err := s.owned(ctx, actor, profileID)
	if err != nil {
		return nil, err
	}
	applyProfileInput(profile, in)
	profile.UpdatedAt = s.now()
	if err := s.store.Update(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictf("profile email %s is already in use", in.Email)
		}
		return nil, storageErr(err)
	}
	return profile, nil
}

// Delete 删除资料
// 关联数据（意向、收藏、消息、浏览记录、账号关联）由存储层在同一事务内清理，对象存储中的照片随后删除
func (s *ProfileService) Delete(ctx context.Context, actor Actor, profileID string) error {
	if _, err := s.owned(ctx, actor, profileID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("profile %s", profileID)
		}
		return storageErr(err)
	}
	if err := s.photos.DeletePrefix(ctx, storage.ProfilePrefix(profileID)); err != nil {
		logger.Warn("删除资料照片失败", zap.String("profile_id", profileID), zap.Error(err))
	}
	return nil
}

// List 分页列出他人资料
func (s *ProfileService) List(ctx context.Context, callerProfileID string, page repository.Page) ([]model.Profile, int64, error) {
	return s.Search(ctx, repository.ProfileFilter{ExcludeProfileID: callerProfileID, Page: page})
}

// Search 按条件检索资料
func (s *ProfileService) Search(ctx context.Context, filter repository.ProfileFilter) ([]model.Profile, int64, error) {
	if filter.AgeMin < 0 || filter.AgeMax < 0 {
		return nil, 0, invalidf("age must not be negative")
	}
	if filter.AgeMin > 0 && filter.AgeMax > 0 && filter.AgeMin > filter.AgeMax {
		return nil, 0, invalidf("age_min must not exceed age_max")
	}
	if sex := strings.ToUpper(strings.TrimSpace(filter.Sex)); sex != "" && sex != "M" && sex != "F" {
		return nil, 0, invalidf("sex must be M or F")
	}
	profiles, total, err := s.store.Search(ctx, filter)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return profiles, total, nil
}

// UploadPhotos 上传照片，返回新照片的访问地址
func (s *ProfileService) UploadPhotos(ctx context.Context, actor Actor, profileID string, uploads []PhotoUpload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, invalidf("no photos uploaded")
	}
	if len(uploads) > s.limits.MaxPhotos {
		return nil, invalidf("at most %d photos per upload", s.limits.MaxPhotos)
	}
	for _, u := range uploads {
		if !strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
			return nil, invalidf("%s is not an image", u.Filename)
		}
		if u.Size > s.limits.MaxPhotoBytes {
			return nil, invalidf("%s exceeds %d bytes", u.Filename, s.limits.MaxPhotoBytes)
		}
	}
	if _, err := s.owned(ctx, actor, profileID); err != nil {
		return nil, err
	}

	records := make([]model.ProfilePhoto, 0, len(uploads))
	for _, u := range uploads {
		key := storage.PhotoKey(profileID, uuid.NewString(), filepath.Ext(u.Filename))
		if err := s.photos.Put(ctx, key, u.Body, u.Size, u.ContentType); err != nil {
			return nil, storageErr(err)
		}
		records = append(records, model.ProfilePhoto{
			ProfileID:   profileID,
			ObjectKey:   key,
			ContentType: u.ContentType,
			Size:        u.Size,
			CreatedAt:   s.now(),
		})
	}
	if err := s.store.AddPhotos(ctx, records); err != nil {
		return nil, storageErr(err)
	}

	urls := make([]string, 0, len(records))
	for _, r := range records {
		url, err := s.photos.URL(ctx, r.ObjectKey)
		if err != nil {
			return nil, storageErr(err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// MutualMatches 互相匹配的资料
func (s *ProfileService) MutualMatches(ctx context.Context, profileID string) ([]model.Profile, error) {
	ids, err := s.matches.FindMutualMatches(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}
	profiles, err := s.store.GetByProfileIDs(ctx, ids)
	if err != nil {
		return nil, storageErr(err)
	}
	return profiles, nil
}

// Stats 仪表盘统计
func (s *ProfileService) Stats(ctx context.Context) (*repository.ProfileStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return stats, nil
}

// RecordView 记录 viewer 浏览了 viewed
func (s *ProfileService) RecordView(ctx context.Context, viewer, viewed string) (*model.ProfileViewLog, error) {
	if viewer == viewed {
		return nil, invalidf("cannot record a view of your own profile")
	}
	if _, err := s.load(ctx, viewed); err != nil {
		return nil, err
	}
	view, err := s.store.RecordView(ctx, viewer, viewed)
	if err != nil {
		return nil, storageErr(err)
	}
	return view, nil
}

// ListViewers 浏览过该资料的记录
func (s *ProfileService) ListViewers(ctx context.Context, viewed string, page repository.Page) ([]model.ProfileViewLog, int64, error) {
	views, total, err := s.store.ListViewers(ctx, viewed, page)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return views, total, nil
}

func (s *ProfileService) load(ctx context.Context, profileID string) (*model.Profile, error) {
	profile, err := s.store.GetByProfileID(ctx, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundf("profile %s", profileID)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return profile, nil
}

// owned 加载资料并校验操作者为本人或管理员
func (s *ProfileService) owned(ctx context.Context, actor Actor, profileID string) (*model.Profile, error) {
	profile, err := s.load(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, unauthorizedf("profile %s belongs to another user", profileID)
	}
	return profile, nil
}

// photoURLs 生成照片访问地址，单张失败只记录日志
func (s *ProfileService) photoURLs(ctx context.Context, profileID string) []string {
	photos, err := s.store.ListPhotos(ctx, profileID)
	if err != nil {
		logger.Warn("获取资料照片失败", zap.String("profile_id", profileID), zap.Error(err))
		return []string{}
	}
	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		url, err := s.photos.URL(ctx, p.ObjectKey)
		if err != nil {
			logger.Warn("生成照片地址失败", zap.String("key", p.ObjectKey), zap.Error(err))
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

func validateProfileInput(in *ProfileInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Sex = strings.ToUpper(strings.TrimSpace(in.Sex))
	in.Manglik = strings.ToUpper(strings.TrimSpace(in.Manglik))
	in.Smoking = strings.ToUpper(strings.TrimSpace(in.Smoking))
	in.Drinking = strings.ToUpper(strings.TrimSpace(in.Drinking))

	if in.FirstName == "" || in.LastName == "" {
		return invalidf("first_name and last_name are required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	in.Email = email
	if in.Sex != "M" && in.Sex != "F" {
		return invalidf("sex must be M or F")
	}
	for field, v := range map[string]string{"manglik": in.Manglik, "smoking": in.Smoking, "drinking": in.Drinking} {
		if v != "" && v != "Y" && v != "N" && v != "U" {
			return invalidf("%s must be Y, N or U", field)
		}
	}
	if in.DOB != nil && in.DOB.After(time.Now()) {
		return invalidf("dob must be in the past")
	}
	if strings.TrimSpace(in.CreatedFor) == "" {
		in.CreatedFor = "Self"
	}
	return nil
}

func applyProfileInput(p *model.Profile, in ProfileInput) {
	p.CreatedFor = in.CreatedFor
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.Email = in.Email
	p.Sex = in.Sex
	p.DOB = in.DOB
	p.MaritalStatus = in.MaritalStatus
	p.Religion = in.Religion
	p.Caste = in.Caste
	p.SubCaste = in.SubCaste
	p.MotherTongue = in.MotherTongue
	p.Star = in.Star
	p.Raashi = in.Raashi
	p.Manglik = in.Manglik
	p.Height = in.Height
	p.Education = in.Education
	p.Occupation = in.Occupation
	p.WorkingWith = in.WorkingWith
	p.AnnualIncome = in.AnnualIncome
	p.EatingHabit = in.EatingHabit
	p.Smoking = in.Smoking
	p.Drinking = in.Drinking
	p.City = in.City
	p.State = in.State
	p.Country = in.Country
	p.Mobile = in.Mobile
	p.About = in.About
}
