// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// EventRepository is the storage contract for calendar events. Event update
// uses optimistic revisions; a mismatch surfaces as a conflict error.
type EventRepository interface {
	Get(ctx context.Context, eventID string) (*models.Event, error)
	GetWithRevision(ctx context.Context, eventID string) (*models.Event, uint64, error)
	// GetBySeriesID returns the series master for the given series.
	GetBySeriesID(ctx context.Context, seriesID string) (*models.Event, error)
	ListChangeExceptions(ctx context.Context, seriesID string) ([]*models.Event, error)
	GetChangeException(ctx context.Context, seriesID, recurrenceID string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event, revision uint64) error
}

// EventResolver maps a UID plus optional recurrence marker and target user to
// a concrete stored event identity.
type EventResolver interface {
	ResolveEventID(ctx context.Context, uid string, recurrenceID *string, targetUser int) (string, error)
}

// AttendeeRepository is the storage contract for per-event attendee rows.
type AttendeeRepository interface {
	UpdateAttendee(ctx context.Context, eventID string, update models.AttendeeUpdate) error
	UpdateAttendees(ctx context.Context, eventID string, updates []models.AttendeeUpdate) error
	InsertAttendees(ctx context.Context, eventID string, attendees []models.Attendee) error
}

// AlarmRepository is the storage contract for alarms and their precomputed
// triggers. Triggers are always rebuilt via delete-then-reinsert.
type AlarmRepository interface {
	// LoadAlarms returns the alarms of the event keyed by attendee entity id.
	LoadAlarms(ctx context.Context, event *models.Event) (map[int][]models.Alarm, error)
	DeleteTriggers(ctx context.Context, eventID string) error
	InsertTriggers(ctx context.Context, event *models.Event, alarms map[int][]models.Alarm) error
}
