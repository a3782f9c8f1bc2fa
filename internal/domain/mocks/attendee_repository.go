// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// MockAttendeeRepository implements AttendeeRepository for testing
type MockAttendeeRepository struct {
	mock.Mock
}

func (m *MockAttendeeRepository) UpdateAttendee(ctx context.Context, eventID string, update models.AttendeeUpdate) error {
	args := m.Called(ctx, eventID, update)
	return args.Error(0)
}

func (m *MockAttendeeRepository) UpdateAttendees(ctx context.Context, eventID string, updates []models.AttendeeUpdate) error {
	args := m.Called(ctx, eventID, updates)
	return args.Error(0)
}

func (m *MockAttendeeRepository) InsertAttendees(ctx context.Context, eventID string, attendees []models.Attendee) error {
	args := m.Called(ctx, eventID, attendees)
	return args.Error(0)
}

// MockAlarmRepository implements AlarmRepository for testing
type MockAlarmRepository struct {
	mock.Mock
}

func (m *MockAlarmRepository) LoadAlarms(ctx context.Context, event *models.Event) (map[int][]models.Alarm, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int][]models.Alarm), args.Error(1)
}

func (m *MockAlarmRepository) DeleteTriggers(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockAlarmRepository) InsertTriggers(ctx context.Context, event *models.Event, alarms map[int][]models.Alarm) error {
	args := m.Called(ctx, event, alarms)
	return args.Error(0)
}
