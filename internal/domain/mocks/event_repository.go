// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// MockEventRepository implements EventRepository for testing
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Get(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetWithRevision(ctx context.Context, eventID string) (*models.Event, uint64, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.Event), args.Get(1).(uint64), args.Error(2)
}

func (m *MockEventRepository) GetBySeriesID(ctx context.Context, seriesID string) (*models.Event, error) {
	args := m.Called(ctx, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) ListChangeExceptions(ctx context.Context, seriesID string) ([]*models.Event, error) {
	args := m.Called(ctx, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetChangeException(ctx context.Context, seriesID, recurrenceID string) (*models.Event, error) {
	args := m.Called(ctx, seriesID, recurrenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.Event, revision uint64) error {
	args := m.Called(ctx, event, revision)
	return args.Error(0)
}

// MockEventResolver implements EventResolver for testing
type MockEventResolver struct {
	mock.Mock
}

func (m *MockEventResolver) ResolveEventID(ctx context.Context, uid string, recurrenceID *string, targetUser int) (string, error) {
	args := m.Called(ctx, uid, recurrenceID, targetUser)
	return args.String(0), args.Error(1)
}
