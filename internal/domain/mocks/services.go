// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// MockRecurrenceService implements RecurrenceService for testing
type MockRecurrenceService struct {
	mock.Mock
}

func (m *MockRecurrenceService) RecurrenceIDExists(ctx context.Context, master *models.Event, recurrenceID string) (bool, error) {
	args := m.Called(ctx, master, recurrenceID)
	return args.Bool(0), args.Error(1)
}

// MockQuotaService implements QuotaService for testing
type MockQuotaService struct {
	mock.Mock
}

func (m *MockQuotaService) CheckEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockPermissionService implements PermissionService for testing
type MockPermissionService struct {
	mock.Mock
}

func (m *MockPermissionService) RequireWritePermissions(ctx context.Context, event *models.Event, change *models.Event, isDelete bool) error {
	args := m.Called(ctx, event, change, isDelete)
	return args.Error(0)
}

// MockReconciliationNotificationSender implements ReconciliationNotificationSender for testing
type MockReconciliationNotificationSender struct {
	mock.Mock
}

func (m *MockReconciliationNotificationSender) SendReconciliationResult(ctx context.Context, result *models.ReconciliationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
