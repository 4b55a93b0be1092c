package service

import (
	"context"
	"strings"
	"testing"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryInquiryStore struct {
	items map[uint]model.Inquiry
	next  uint
}

func (m *memoryInquiryStore) Create(_ context.Context, inquiry *model.Inquiry) error {
	if m.items == nil {
		m.items = make(map[uint]model.Inquiry)
	}
	m.next++
	inquiry.ID = m.next
	m.items[inquiry.ID] = *inquiry
	return nil
}

func (m *memoryInquiryStore) List(_ context.Context, from, forWhom string, _ repository.Page) ([]model.Inquiry, int64, error) {
	var out []model.Inquiry
	for id := uint(1); id <= m.next; id++ {
		it, ok := m.items[id]
		if !ok || (from != "" && it.InquiryFrom != from) || (forWhom != "" && it.InquiryFor != forWhom) {
			continue
		}
		out = append(out, it)
	}
	return out, int64(len(out)), nil
}

func (m *memoryInquiryStore) Delete(_ context.Context, id uint) (bool, error) {
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func TestInquiryService(t *testing.T) {
	svc := NewInquiryService(&memoryInquiryStore{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "MP2", "hi")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.Create(ctx, "parent@example.com", "MP2", "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.Create(ctx, strings.Repeat("x", 251), "MP2", "hi")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	first, err := svc.Create(ctx, "parent@example.com", "MP2", "Is the profile still active?")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "other@example.com", "MP3", "hello")
	require.NoError(t, err)

	items, total, err := svc.List(ctx, "", "MP2", repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, first.ID, items[0].ID)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), ErrNotFound)
}
