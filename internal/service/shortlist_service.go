package service

import (
	"context"
	"errors"
	"strings"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
)

// ShortlistStore 收藏存储
type ShortlistStore interface {
	Create(ctx context.Context, item *model.Shortlist) error
	Delete(ctx context.Context, by, target string) (bool, error)
	ListByOwner(ctx context.Context, by string, page repository.Page) ([]model.Shortlist, int64, error)
}

// ProfileLookup 资料批量查询
type ProfileLookup interface {
	ProfileDirectory
	GetByProfileIDs(ctx context.Context, profileIDs []string) ([]model.Profile, error)
}

// ShortlistEntry 收藏项及被收藏资料，资料已删除时 Profile 为 nil
type ShortlistEntry struct {
	Item    model.Shortlist
	Profile *model.Profile
}

type ShortlistService struct {
	store    ShortlistStore
	profiles ProfileLookup
}

func NewShortlistService(store ShortlistStore, profiles ProfileLookup) *ShortlistService {
	return &ShortlistService{store: store, profiles: profiles}
}

// Add 收藏一份资料
func (s *ShortlistService) Add(ctx context.Context, by, target string) (*model.Shortlist, error) {
	by, target = strings.TrimSpace(by), strings.TrimSpace(target)
	if target == "" {
		return nil, invalidf("shortlisted_pid is required")
	}
	if by == target {
		return nil, invalidf("cannot shortlist your own profile")
	}
	ok, err := s.profiles.Exists(ctx, target)
	if err != nil {
		return nil, storageErr(err)
	}
	if !ok {
		return nil, notFoundf("profile %s", target)
	}

	item := &model.Shortlist{ShortlistedByPID: by, ShortlistedPID: target}
	if err := s.store.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictf("profile %s is already shortlisted", target)
		}
		return nil, storageErr(err)
	}
	return item, nil
}

// Remove 取消收藏
func (s *ShortlistService) Remove(ctx context.Context, by, target string) error {
	ok, err := s.store.Delete(ctx, by, strings.TrimSpace(target))
	if err != nil {
		return storageErr(err)
	}
	if !ok {
		return notFoundf("profile %s is not shortlisted", target)
	}
	return nil
}

// List 收藏列表，附带被收藏资料
func (s *ShortlistService) List(ctx context.Context, by string, page repository.Page) ([]ShortlistEntry, int64, error) {
	items, total, err := s.store.ListByOwner(ctx, by, page)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	entries := make([]ShortlistEntry, 0, len(items))
	if len(items) == 0 {
		return entries, total, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ShortlistedPID)
	}
	profiles, err := s.profiles.GetByProfileIDs(ctx, ids)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	byID := make(map[string]*model.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ProfileID] = &profiles[i]
	}
	for _, it := range items {
		entries = append(entries, ShortlistEntry{Item: it, Profile: byID[it.ShortlistedPID]})
	}
	return entries, total, nil
}
