// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/samber/mo"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// UpdatePreparer computes the minimal field-level attendee update between a
// stored event and an incoming reply.
type UpdatePreparer struct{}

// NewUpdatePreparer creates a new UpdatePreparer.
func NewUpdatePreparer() *UpdatePreparer {
	return &UpdatePreparer{}
}

// PrepareUpdate looks up the replying attendee in originalEvent and returns
// the prepared update, or None when there is nothing to persist:
//
//   - the attendee is not part of the event (logged, not an error),
//   - the reply's timestamp is not newer than the stored one (a stale or
//     replayed REPLY must never clobber a more recent state), or
//   - no tracked field actually differs.
func (p *UpdatePreparer) PrepareUpdate(ctx context.Context, originalEvent *models.Event, replying *models.Attendee) mo.Option[models.AttendeeUpdate] {
	original := originalEvent.FindAttendee(replying)
	if original == nil {
		slog.DebugContext(ctx, "replying attendee not part of event, nothing to reconcile",
			"event_id", originalEvent.ID,
			"attendee", replying.CalendarAddress(),
		)
		return mo.None[models.AttendeeUpdate]()
	}

	if !replying.Timestamp.After(original.Timestamp) {
		slog.InfoContext(ctx, "discarding stale attendee update",
			"event_id", originalEvent.ID,
			"attendee", replying.CalendarAddress(),
			"stored_timestamp", original.Timestamp,
			"incoming_timestamp", replying.Timestamp,
		)
		return mo.None[models.AttendeeUpdate]()
	}

	update := models.NewAttendeeUpdate(*original, *replying)
	if update.Empty() {
		slog.DebugContext(ctx, "attendee update is a no-op",
			"event_id", originalEvent.ID,
			"attendee", replying.CalendarAddress(),
		)
		return mo.None[models.AttendeeUpdate]()
	}

	return mo.Some(update)
}
