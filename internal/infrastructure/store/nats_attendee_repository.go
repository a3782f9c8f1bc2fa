// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
)

// attendeeUpdateRetries bounds the optimistic retry loop on revision
// conflicts.
const attendeeUpdateRetries = 3

// NatsAttendeeRepository persists attendee rows. Attendees are embedded in
// the event record, so every attendee write is a read-modify-write of the
// event under optimistic concurrency control, retried on revision conflicts.
type NatsAttendeeRepository struct {
	events     *NatsBaseRepository[models.Event]
	keyBuilder *KeyBuilder
}

// NewNatsAttendeeRepository creates a new NATS KV backed attendee repository.
func NewNatsAttendeeRepository(events INatsKeyValue) *NatsAttendeeRepository {
	return &NatsAttendeeRepository{
		events:     NewNatsBaseRepository[models.Event](events, "event"),
		keyBuilder: NewKeyBuilder(),
	}
}

// IsReady checks if the repository is ready for use.
func (r *NatsAttendeeRepository) IsReady() bool {
	return r.events.IsReady()
}

// UpdateAttendee replaces one stored attendee with its updated counterpart.
func (r *NatsAttendeeRepository) UpdateAttendee(ctx context.Context, eventID string, update models.AttendeeUpdate) error {
	return r.UpdateAttendees(ctx, eventID, []models.AttendeeUpdate{update})
}

// UpdateAttendees replaces multiple stored attendees in one event write.
func (r *NatsAttendeeRepository) UpdateAttendees(ctx context.Context, eventID string, updates []models.AttendeeUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return r.mutateEvent(ctx, eventID, func(event *models.Event) (bool, error) {
		for _, update := range updates {
			stored := event.FindAttendee(&update.Updated)
			if stored == nil {
				return false, domain.NewNotFoundError(
					fmt.Sprintf("attendee %q not part of event %q",
						update.Updated.CalendarAddress(), eventID))
			}
			*stored = update.Updated
		}
		return true, nil
	})
}

// InsertAttendees adds attendees to an event, skipping any that are already
// present. Reinsertion after a prior event write is a no-op, which keeps
// reply reprocessing idempotent.
func (r *NatsAttendeeRepository) InsertAttendees(ctx context.Context, eventID string, attendees []models.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}

	return r.mutateEvent(ctx, eventID, func(event *models.Event) (bool, error) {
		changed := false
		for _, attendee := range attendees {
			if event.FindAttendee(&attendee) != nil {
				continue
			}
			event.Attendees = append(event.Attendees, attendee)
			changed = true
		}
		return changed, nil
	})
}

// mutateEvent runs mutate on a fresh event snapshot and writes it back,
// retrying on revision conflicts. mutate returns false when nothing changed.
func (r *NatsAttendeeRepository) mutateEvent(ctx context.Context, eventID string, mutate func(*models.Event) (bool, error)) error {
	key := r.keyBuilder.EventKey(eventID)

	var lastErr error
	for attempt := 0; attempt < attendeeUpdateRetries; attempt++ {
		event, revision, err := r.events.GetWithRevision(ctx, key)
		if err != nil {
			return err
		}

		changed, err := mutate(event)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		err = r.events.Update(ctx, key, event, revision)
		if err == nil {
			return nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return err
		}
		lastErr = err
		slog.DebugContext(ctx, "revision conflict on attendee write, retrying",
			"event_id", eventID, "attempt", attempt+1, logging.ErrKey, err)
	}

	return domain.NewConflictError(
		fmt.Sprintf("attendee write on event %q kept conflicting", eventID), lastErr)
}

// Compile-time interface check
var _ domain.AttendeeRepository = (*NatsAttendeeRepository)(nil)
