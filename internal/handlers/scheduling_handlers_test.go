// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/mocks"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/infrastructure/itip"
	"github.com/groupware-project/scheduling-reply-service/internal/service"
	"github.com/groupware-project/scheduling-reply-service/pkg/constants"
)

const acceptReplyCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example Corp//Mail Client//EN
METHOD:REPLY
BEGIN:VEVENT
UID:uid-1
DTSTAMP:20260302T080000Z
DTSTART:20260301T100000Z
ATTENDEE;PARTSTAT=ACCEPTED:mailto:ann@example.com
END:VEVENT
END:VCALENDAR
`

type schedulingHandlerMocks struct {
	events      *mocks.MockEventRepository
	resolver    *mocks.MockEventResolver
	attendees   *mocks.MockAttendeeRepository
	alarms      *mocks.MockAlarmRepository
	recurrence  *mocks.MockRecurrenceService
	quota       *mocks.MockQuotaService
	permissions *mocks.MockPermissionService
	sender      *mocks.MockReconciliationNotificationSender
}

// setupSchedulingHandlerForTesting wires a SchedulingHandler over a real
// reconciliation service backed by mock storage.
func setupSchedulingHandlerForTesting() (*SchedulingHandler, *schedulingHandlerMocks) {
	m := &schedulingHandlerMocks{
		events:      new(mocks.MockEventRepository),
		resolver:    new(mocks.MockEventResolver),
		attendees:   new(mocks.MockAttendeeRepository),
		alarms:      new(mocks.MockAlarmRepository),
		recurrence:  new(mocks.MockRecurrenceService),
		quota:       new(mocks.MockQuotaService),
		permissions: new(mocks.MockPermissionService),
		sender:      new(mocks.MockReconciliationNotificationSender),
	}

	updatePreparer := service.NewUpdatePreparer()
	reconciliationService := service.NewReconciliationService(
		m.events,
		m.resolver,
		m.attendees,
		m.alarms,
		m.permissions,
		service.NewAttendeeMatcher(),
		updatePreparer,
		service.NewOccurrenceResolver(m.events, m.attendees, m.alarms, m.recurrence, m.quota, updatePreparer),
		service.NewPartyCrasherService(m.events, m.resolver, m.attendees, m.quota, m.permissions),
	)

	handler := NewSchedulingHandler(reconciliationService, itip.NewReplyParser(), m.sender)
	return handler, m
}

func newStoredEventFixture() *models.Event {
	return &models.Event{
		ID:        "evt-1",
		UID:       "uid-1",
		OwnerID:   7,
		StartTime: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Organizer: &models.Attendee{
			URI:       "mailto:org@example.com",
			Email:     "org@example.com",
			EntityID:  42,
			Organizer: true,
		},
		Attendees: []models.Attendee{
			{
				URI:                 "mailto:ann@example.com",
				Email:               "ann@example.com",
				EntityID:            12,
				ParticipationStatus: models.ParticipationNeedsAction,
				Timestamp:           time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
			},
		},
		Timestamp: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newEnvelopeData(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(models.ReplyEnvelope{
		Originator:   "ann@example.com",
		TargetUser:   7,
		CalendarData: acceptReplyCalendar,
	})
	require.NoError(t, err)
	return data
}

func TestSchedulingHandlerHandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("processes an accept reply and responds with the mutation count", func(t *testing.T) {
		handler, m := setupSchedulingHandlerForTesting()
		stored := newStoredEventFixture()

		m.resolver.On("ResolveEventID", mock.Anything, "uid-1", (*string)(nil), 7).Return("evt-1", nil)
		m.events.On("Get", mock.Anything, "evt-1").Return(stored, nil)
		m.permissions.On("RequireWritePermissions", mock.Anything, stored, (*models.Event)(nil), false).Return(nil)
		m.attendees.On("UpdateAttendee", mock.Anything, "evt-1", mock.Anything).Return(nil)
		m.alarms.On("LoadAlarms", mock.Anything, mock.Anything).Return(map[int][]models.Alarm{}, nil)
		m.alarms.On("DeleteTriggers", mock.Anything, "evt-1").Return(nil)
		m.alarms.On("InsertTriggers", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		m.sender.On("SendReconciliationResult", mock.Anything, mock.Anything).Return(nil)

		msg := new(mocks.MockMessage)
		msg.On("Subject").Return(constants.SchedulingReplyAPISubject)
		msg.On("Data").Return(newEnvelopeData(t))
		msg.On("HasReply").Return(true)

		var responded []byte
		msg.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
			responded = args.Get(0).([]byte)
		}).Return(nil)

		handler.HandleMessage(ctx, msg)

		var response ReplyProcessingResponse
		require.NoError(t, json.Unmarshal(responded, &response))
		assert.True(t, response.Success)
		assert.Equal(t, 1, response.Mutations)
		assert.Empty(t, response.Error)

		m.attendees.AssertExpectations(t)
		m.sender.AssertExpectations(t)
	})

	t.Run("unknown attendee on the message path makes no writes", func(t *testing.T) {
		handler, m := setupSchedulingHandlerForTesting()
		stored := newStoredEventFixture()
		stored.Attendees = []models.Attendee{{
			URI:   "mailto:bob@example.com",
			Email: "bob@example.com",
		}}

		m.resolver.On("ResolveEventID", mock.Anything, "uid-1", (*string)(nil), 7).Return("evt-1", nil)
		m.events.On("Get", mock.Anything, "evt-1").Return(stored, nil)
		m.sender.On("SendReconciliationResult", mock.Anything, mock.Anything).Return(nil)

		msg := new(mocks.MockMessage)
		msg.On("Subject").Return(constants.SchedulingReplyMessageSubject)
		msg.On("Data").Return(newEnvelopeData(t))
		msg.On("HasReply").Return(false)

		handler.HandleMessage(ctx, msg)

		m.attendees.AssertNotCalled(t, "UpdateAttendee", mock.Anything, mock.Anything, mock.Anything)
		m.attendees.AssertNotCalled(t, "InsertAttendees", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown subject responds with nil", func(t *testing.T) {
		handler, _ := setupSchedulingHandlerForTesting()

		msg := new(mocks.MockMessage)
		msg.On("Subject").Return("groupware.scheduling.unknown")
		msg.On("HasReply").Return(true)
		msg.On("Respond", []byte(nil)).Return(nil)

		handler.HandleMessage(ctx, msg)

		msg.AssertExpectations(t)
	})

	t.Run("malformed envelope responds with an error payload", func(t *testing.T) {
		handler, m := setupSchedulingHandlerForTesting()

		msg := new(mocks.MockMessage)
		msg.On("Subject").Return(constants.SchedulingReplyAPISubject)
		msg.On("Data").Return([]byte("not json"))
		msg.On("HasReply").Return(true)

		var responded []byte
		msg.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
			responded = args.Get(0).([]byte)
		}).Return(nil)

		handler.HandleMessage(ctx, msg)

		var response ReplyProcessingResponse
		require.NoError(t, json.Unmarshal(responded, &response))
		assert.False(t, response.Success)
		assert.NotEmpty(t, response.Error)

		m.events.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("envelope without target user is rejected", func(t *testing.T) {
		handler, m := setupSchedulingHandlerForTesting()

		data, err := json.Marshal(models.ReplyEnvelope{
			Originator:   "ann@example.com",
			CalendarData: acceptReplyCalendar,
		})
		require.NoError(t, err)

		msg := new(mocks.MockMessage)
		msg.On("Subject").Return(constants.SchedulingReplyAPISubject)
		msg.On("Data").Return(data)
		msg.On("HasReply").Return(true)

		var responded []byte
		msg.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
			responded = args.Get(0).([]byte)
		}).Return(nil)

		handler.HandleMessage(ctx, msg)

		var response ReplyProcessingResponse
		require.NoError(t, json.Unmarshal(responded, &response))
		assert.False(t, response.Success)
		assert.Contains(t, response.Error, "target user")

		m.resolver.AssertNotCalled(t, "ResolveEventID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSchedulingHandlerReady(t *testing.T) {
	handler, _ := setupSchedulingHandlerForTesting()
	assert.True(t, handler.HandlerReady())

	incomplete := NewSchedulingHandler(nil, itip.NewReplyParser(), nil)
	assert.False(t, incomplete.HandlerReady())
}

func TestOriginatorAttendee(t *testing.T) {
	bare := originatorAttendee(models.ReplyEnvelope{Originator: "Ann@Example.com"})
	assert.Equal(t, "mailto:Ann@Example.com", bare.URI)
	assert.Equal(t, "ann@example.com", bare.Email)

	uri := originatorAttendee(models.ReplyEnvelope{
		Originator: "mailto:boss@example.com",
		SentBy:     "mailto:assistant@example.com",
	})
	assert.Equal(t, "mailto:boss@example.com", uri.URI)
	assert.Equal(t, "boss@example.com", uri.Email)
	assert.Equal(t, "mailto:assistant@example.com", uri.SentBy)
}
