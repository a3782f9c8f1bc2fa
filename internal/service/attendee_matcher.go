// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
)

// AttendeeMatcher resolves which attendee of a reply's event authored the
// reply, including the sent-by fallback and the single-attendee heuristics
// mandated by iTIP.
type AttendeeMatcher struct{}

// NewAttendeeMatcher creates a new AttendeeMatcher.
func NewAttendeeMatcher() *AttendeeMatcher {
	return &AttendeeMatcher{}
}

// ResolveReplyingAttendee determines the replying attendee of updatedEvent
// for the given originator. The result carries only identity and contact
// fields, forced to CUTYPE INDIVIDUAL, with any event-level COMMENT property
// relocated onto the attendee's comment field (and stripped from the event).
//
// When the originator does not appear in the attendee list, resolution falls
// back to the single-attendee heuristics: a trusted API-triggered message
// accepts a sole attendee unconditionally; an automated inbound message
// additionally requires a sent-by match against the originator.
func (m *AttendeeMatcher) ResolveReplyingAttendee(ctx context.Context, updatedEvent *models.Event, originator *models.Attendee, source models.SchedulingSource) (models.Attendee, error) {
	matched := updatedEvent.FindAttendee(originator)

	if matched == nil {
		// The attendee list may have been stripped in the outbound
		// message, or the originator acts as a delegate.
		switch {
		case source == models.SourceAPI && len(updatedEvent.Attendees) == 1:
			// Trusted, user-initiated path: accept the sole attendee
			// regardless of address mismatch.
			matched = &updatedEvent.Attendees[0]
		case source != models.SourceAPI && len(updatedEvent.Attendees) == 1 &&
			updatedEvent.Attendees[0].SentBy != "" && originator.MatchesAddress(updatedEvent.Attendees[0].SentBy):
			matched = &updatedEvent.Attendees[0]
		default:
			slog.DebugContext(ctx, "no attendee matches the reply originator",
				"originator", originator.CalendarAddress(),
				"attendee_count", len(updatedEvent.Attendees),
			)
			return models.Attendee{}, domain.NewNotFoundError(
				fmt.Sprintf("no attendee matching originator %q found in reply for event %q",
					originator.CalendarAddress(), updatedEvent.UID))
		}
	}

	resolved := matched.AsIndividual()
	resolved.ParticipationStatus = matched.ParticipationStatus
	resolved.Comment = matched.Comment
	resolved.SentBy = matched.SentBy
	resolved.ExtendedParameters = matched.ExtendedParameters
	resolved.Timestamp = matched.Timestamp

	// A COMMENT carried on the event belongs on the replying attendee once
	// the reply is attributed.
	if comment := updatedEvent.GetExtendedProperty(models.PropertyComment); comment != nil {
		resolved.Comment = comment.Value
		updatedEvent.RemoveExtendedProperty(models.PropertyComment)
		ctx = logging.AppendCtx(ctx, slog.String("event_uid", updatedEvent.UID))
		slog.DebugContext(ctx, "relocated event comment onto replying attendee")
	}

	return resolved, nil
}
