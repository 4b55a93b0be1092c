package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
)

const maxInquiryPartyLength = 250

// InquiryStore 咨询存储
type InquiryStore interface {
	Create(ctx context.Context, inquiry *model.Inquiry) error
	List(ctx context.Context, from, forWhom string, page repository.Page) ([]model.Inquiry, int64, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type InquiryService struct {
	store InquiryStore
	now   func() time.Time
}

func NewInquiryService(store InquiryStore) *InquiryService {
	return &InquiryService{store: store, now: time.Now}
}

// Create 提交咨询
func (s *InquiryService) Create(ctx context.Context, from, forWhom, message string) (*model.Inquiry, error) {
	from, forWhom, message = strings.TrimSpace(from), strings.TrimSpace(forWhom), strings.TrimSpace(message)
	if from == "" || forWhom == "" {
		return nil, invalidf("inquiry_from and inquiry_for are required")
	}
	if utf8.RuneCountInString(from) > maxInquiryPartyLength || utf8.RuneCountInString(forWhom) > maxInquiryPartyLength {
		return nil, invalidf("inquiry parties must be at most %d characters", maxInquiryPartyLength)
	}
	if message == "" {
		return nil, invalidf("message is required")
	}

	inquiry := &model.Inquiry{InquiryFrom: from, InquiryFor: forWhom, Message: message, CreatedAt: s.now()}
	if err := s.store.Create(ctx, inquiry); err != nil {
		return nil, storageErr(err)
	}
	return inquiry, nil
}

// List 按条件列出咨询
func (s *InquiryService) List(ctx context.Context, from, forWhom string, page repository.Page) ([]model.Inquiry, int64, error) {
	items, total, err := s.store.List(ctx, strings.TrimSpace(from), strings.TrimSpace(forWhom), page)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return items, total, nil
}

// Delete 删除咨询
func (s *InquiryService) Delete(ctx context.Context, id uint) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return storageErr(err)
	}
	if !ok {
		return notFoundf("inquiry %d", id)
	}
	return nil
}
