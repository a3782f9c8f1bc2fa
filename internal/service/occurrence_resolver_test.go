// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/mocks"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

func ridPtr(s string) *string {
	return &s
}

func setupOccurrenceResolverForTesting() (*OccurrenceResolver, *mocks.MockEventRepository, *mocks.MockAttendeeRepository, *mocks.MockAlarmRepository, *mocks.MockRecurrenceService, *mocks.MockQuotaService) {
	events := &mocks.MockEventRepository{}
	attendees := &mocks.MockAttendeeRepository{}
	alarms := &mocks.MockAlarmRepository{}
	recurrence := &mocks.MockRecurrenceService{}
	quota := &mocks.MockQuotaService{}
	resolver := NewOccurrenceResolver(events, attendees, alarms, recurrence, quota, NewUpdatePreparer())
	return resolver, events, attendees, alarms, recurrence, quota
}

func newSeriesMasterFixture() *models.Event {
	return &models.Event{
		ID:             "evt-series",
		UID:            "uid-series",
		CalendarID:     "cal-1",
		Summary:        "Weekly sync",
		StartTime:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		RecurrenceRule: "FREQ=DAILY;COUNT=10",
		Organizer:      &models.Attendee{URI: "mailto:org@example.com", EntityID: 42, Organizer: true},
		Attendees: []models.Attendee{
			{
				URI:                 "mailto:ann@example.com",
				ParticipationStatus: models.ParticipationNeedsAction,
				Timestamp:           time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
			},
		},
		Alarms: []models.Alarm{
			{ID: "alarm-1", Action: models.AlarmActionDisplay, TriggerOffset: -15 * time.Minute},
		},
		Timestamp: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func expectTriggerRecompute(alarms *mocks.MockAlarmRepository) {
	alarms.On("LoadAlarms", mock.Anything, mock.Anything).Return(map[int][]models.Alarm{}, nil)
	alarms.On("DeleteTriggers", mock.Anything, mock.Anything).Return(nil)
	alarms.On("InsertTriggers", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func TestCreateChangeException(t *testing.T) {
	ctx := context.Background()
	recurrenceID := "20260303T100000Z"

	replying := &models.Attendee{
		URI:                 "mailto:ann@example.com",
		CUType:              models.CalendarUserTypeIndividual,
		ParticipationStatus: models.ParticipationAccepted,
		Timestamp:           time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}

	t.Run("forks exception and applies reply", func(t *testing.T) {
		resolver, events, attendees, alarms, recurrence, quota := setupOccurrenceResolverForTesting()
		master := newSeriesMasterFixture()

		persisted := master.Copy()
		persisted.ID = "exc-1"
		persisted.SeriesID = master.ID
		persisted.RecurrenceID = ridPtr(recurrenceID)
		persisted.RecurrenceRule = ""

		var created *models.Event
		recurrence.On("RecurrenceIDExists", mock.Anything, master, recurrenceID).Return(true, nil)
		quota.On("CheckEvent", mock.Anything, mock.Anything).Return(nil)
		events.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Event)
		}).Return(nil)
		attendees.On("InsertAttendees", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		events.On("Get", mock.Anything, mock.Anything).Return(persisted, nil)
		attendees.On("UpdateAttendee", mock.Anything, "exc-1", mock.Anything).Return(nil)
		events.On("GetWithRevision", mock.Anything, master.ID).Return(master, uint64(3), nil)
		events.On("Update", mock.Anything, mock.Anything, uint64(3)).Return(nil)
		expectTriggerRecompute(alarms)

		result := models.NewReconciliationResult()
		exception, err := resolver.CreateChangeException(ctx, master, recurrenceID, replying, result)
		require.NoError(t, err)
		require.NotNil(t, exception)

		// The forked event detaches from the pattern and pins the occurrence.
		require.NotNil(t, created)
		assert.NotEqual(t, master.ID, created.ID)
		assert.Equal(t, master.ID, created.SeriesID)
		require.NotNil(t, created.RecurrenceID)
		assert.Equal(t, recurrenceID, *created.RecurrenceID)
		assert.Empty(t, created.RecurrenceRule)
		assert.True(t, created.StartTime.Equal(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)))
		require.Len(t, created.Alarms, 1)
		assert.Equal(t, master.Alarms[0].ID, created.Alarms[0].ID)

		// One creation, then the exception's attendee update, then the
		// master registering the new change exception date.
		mutations := result.Mutations()
		require.Len(t, mutations, 3)
		assert.Equal(t, models.MutationCreated, mutations[0].Kind)
		assert.Equal(t, "exc-1", mutations[0].Updated.ID)
		assert.Equal(t, models.MutationUpdated, mutations[1].Kind)
		assert.Equal(t, "exc-1", mutations[1].Updated.ID)
		assert.Equal(t, models.MutationUpdated, mutations[2].Kind)
		assert.Equal(t, master.ID, mutations[2].Updated.ID)
		assert.Contains(t, mutations[2].Updated.ChangeExceptionDates, recurrenceID)

		applied := exception.FindAttendee(replying)
		require.NotNil(t, applied)
		assert.Equal(t, models.ParticipationAccepted, applied.ParticipationStatus)

		attendees.AssertCalled(t, "UpdateAttendee", mock.Anything, "exc-1", mock.Anything)
		alarms.AssertNumberOfCalls(t, "DeleteTriggers", 2)
		alarms.AssertNumberOfCalls(t, "InsertTriggers", 2)
	})

	t.Run("rejects recurrence id outside the pattern", func(t *testing.T) {
		resolver, events, _, _, recurrence, _ := setupOccurrenceResolverForTesting()
		master := newSeriesMasterFixture()

		recurrence.On("RecurrenceIDExists", mock.Anything, master, recurrenceID).Return(false, nil)

		result := models.NewReconciliationResult()
		_, err := resolver.CreateChangeException(ctx, master, recurrenceID, replying, result)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
		assert.True(t, result.Empty())
		events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("stale reply still forks but skips the attendee update", func(t *testing.T) {
		resolver, events, attendees, alarms, recurrence, quota := setupOccurrenceResolverForTesting()
		master := newSeriesMasterFixture()

		persisted := master.Copy()
		persisted.ID = "exc-1"
		persisted.SeriesID = master.ID
		persisted.RecurrenceID = ridPtr(recurrenceID)
		persisted.RecurrenceRule = ""
		persisted.Attendees[0].Timestamp = replying.Timestamp.Add(time.Hour)

		recurrence.On("RecurrenceIDExists", mock.Anything, master, recurrenceID).Return(true, nil)
		quota.On("CheckEvent", mock.Anything, mock.Anything).Return(nil)
		events.On("Create", mock.Anything, mock.Anything).Return(nil)
		attendees.On("InsertAttendees", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		events.On("Get", mock.Anything, mock.Anything).Return(persisted, nil)
		events.On("GetWithRevision", mock.Anything, master.ID).Return(master, uint64(3), nil)
		events.On("Update", mock.Anything, mock.Anything, uint64(3)).Return(nil)
		expectTriggerRecompute(alarms)

		result := models.NewReconciliationResult()
		_, err := resolver.CreateChangeException(ctx, master, recurrenceID, replying, result)
		require.NoError(t, err)

		require.Len(t, result.Mutations(), 2)
		assert.Len(t, result.Creations(), 1)
		attendees.AssertNotCalled(t, "UpdateAttendee", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("quota failure aborts before creation", func(t *testing.T) {
		resolver, events, _, _, recurrence, quota := setupOccurrenceResolverForTesting()
		master := newSeriesMasterFixture()

		recurrence.On("RecurrenceIDExists", mock.Anything, master, recurrenceID).Return(true, nil)
		quota.On("CheckEvent", mock.Anything, mock.Anything).Return(domain.NewQuotaExceededError("too many attendees"))

		result := models.NewReconciliationResult()
		_, err := resolver.CreateChangeException(ctx, master, recurrenceID, replying, result)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeQuotaExceeded, domain.GetErrorType(err))
		events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestOccurrenceResolverServiceReady(t *testing.T) {
	resolver, _, _, _, _, _ := setupOccurrenceResolverForTesting()
	assert.True(t, resolver.ServiceReady())

	assert.False(t, (&OccurrenceResolver{}).ServiceReady())
}
