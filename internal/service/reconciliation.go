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

// ReconciliationService drives the processing of one incoming iTIP REPLY:
// it determines which stored event(s) the reply applies to, reconciles
// attendee participation state and forks change exceptions where the reply
// targets an occurrence without a stored override.
type ReconciliationService struct {
	eventRepository     domain.EventRepository
	eventResolver       domain.EventResolver
	attendeeRepository  domain.AttendeeRepository
	alarmRepository     domain.AlarmRepository
	permissionService   domain.PermissionService
	attendeeMatcher     *AttendeeMatcher
	updatePreparer      *UpdatePreparer
	occurrenceResolver  *OccurrenceResolver
	partyCrasherService *PartyCrasherService
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	eventRepository domain.EventRepository,
	eventResolver domain.EventResolver,
	attendeeRepository domain.AttendeeRepository,
	alarmRepository domain.AlarmRepository,
	permissionService domain.PermissionService,
	attendeeMatcher *AttendeeMatcher,
	updatePreparer *UpdatePreparer,
	occurrenceResolver *OccurrenceResolver,
	partyCrasherService *PartyCrasherService,
) *ReconciliationService {
	return &ReconciliationService{
		eventRepository:     eventRepository,
		eventResolver:       eventResolver,
		attendeeRepository:  attendeeRepository,
		alarmRepository:     alarmRepository,
		permissionService:   permissionService,
		attendeeMatcher:     attendeeMatcher,
		updatePreparer:      updatePreparer,
		occurrenceResolver:  occurrenceResolver,
		partyCrasherService: partyCrasherService,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *ReconciliationService) ServiceReady() bool {
	return s.eventRepository != nil &&
		s.eventResolver != nil &&
		s.attendeeRepository != nil &&
		s.alarmRepository != nil &&
		s.permissionService != nil &&
		s.attendeeMatcher != nil &&
		s.updatePreparer != nil &&
		s.occurrenceResolver != nil &&
		s.partyCrasherService != nil
}

// ProcessReply reconciles one incoming REPLY message against storage and
// returns the ordered mutations it produced. The caller provides the
// surrounding storage transaction; any hard failure propagates and aborts
// it. Reprocessing the same message is idempotent: stale attendee updates
// are no-ops and exception forking checks for existing overrides first.
func (s *ReconciliationService) ProcessReply(ctx context.Context, msg *models.IncomingSchedulingMessage) (*models.ReconciliationResult, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("reconciliation service is not ready")
	}
	if msg == nil || msg.Resource.FirstEvent == nil {
		return nil, domain.NewValidationError("scheduling message carries no event")
	}
	if msg.Method != models.MethodReply {
		return nil, domain.NewValidationError(
			fmt.Sprintf("unsupported scheduling method %q, only REPLY is processed", msg.Method))
	}

	firstEvent := msg.Resource.FirstEvent
	ctx = logging.AppendCtx(ctx, slog.String("uid", firstEvent.UID))
	ctx = logging.AppendCtx(ctx, slog.String("source", string(msg.Source)))

	result := models.NewReconciliationResult()

	eventID, err := s.eventResolver.ResolveEventID(ctx, firstEvent.UID, nil, msg.TargetUser)
	if err != nil {
		return nil, err
	}
	original, err := s.eventRepository.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("event_id", original.ID))

	replying, err := s.attendeeMatcher.ResolveReplyingAttendee(ctx, firstEvent, &msg.Originator, msg.Source)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("attendee", replying.CalendarAddress()))

	// Unknown-attendee branch: only the trusted API path may add a party
	// crasher. Unsolicited replies from addresses not on the attendee list
	// must never silently modify an event.
	if original.FindAttendee(&replying) == nil {
		if msg.Source != models.SourceAPI {
			slog.WarnContext(ctx, "ignoring reply from unknown attendee on automated trigger path")
			return result, nil
		}
		if err := s.partyCrasherService.AddPartyCrasher(ctx, msg, original, &replying, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := s.permissionService.RequireWritePermissions(ctx, original, nil, false); err != nil {
		return nil, err
	}

	switch {
	case firstEvent.RecurrenceID != nil:
		err = s.processOccurrenceReply(ctx, original, msg, result)
	case original.IsSeriesMaster():
		err = s.processSeriesReply(ctx, original, msg, &replying, result)
	default:
		err = s.applyAttendeeUpdate(ctx, original, &replying, result)
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "processed scheduling reply", "mutations", len(result.Mutations()))
	return result, nil
}

// processSeriesReply handles a whole-series reply: the master itself, every
// stored exception the message references, and a fork for every exception
// event that has no stored counterpart yet.
func (s *ReconciliationService) processSeriesReply(ctx context.Context, master *models.Event, msg *models.IncomingSchedulingMessage, replying *models.Attendee, result *models.ReconciliationResult) error {
	if err := s.applyAttendeeUpdate(ctx, master, replying, result); err != nil {
		return err
	}

	storedExceptions, err := s.eventRepository.ListChangeExceptions(ctx, master.ID)
	if err != nil {
		return err
	}

	matched := make(map[string]bool, len(storedExceptions))
	for _, exception := range storedExceptions {
		if exception.RecurrenceID == nil {
			continue
		}
		msgEvent := msg.Resource.ChangeException(*exception.RecurrenceID)
		if msgEvent == nil {
			continue
		}
		matched[*exception.RecurrenceID] = true

		// Sent-by and comment may differ per exception, so each
		// exception's replying attendee is resolved on its own.
		exceptionReplying, err := s.attendeeMatcher.ResolveReplyingAttendee(ctx, msgEvent, &msg.Originator, msg.Source)
		if err != nil {
			return err
		}
		if err := s.applyAttendeeUpdate(ctx, exception, &exceptionReplying, result); err != nil {
			return err
		}
	}

	for _, msgEvent := range msg.Resource.ChangeExceptions {
		if msgEvent == nil || msgEvent.RecurrenceID == nil || matched[*msgEvent.RecurrenceID] {
			continue
		}
		exceptionReplying, err := s.attendeeMatcher.ResolveReplyingAttendee(ctx, msgEvent, &msg.Originator, msg.Source)
		if err != nil {
			return err
		}
		if _, err := s.occurrenceResolver.CreateChangeException(ctx, master, *msgEvent.RecurrenceID, &exceptionReplying, result); err != nil {
			return err
		}
	}

	return nil
}

// processOccurrenceReply handles a reply whose first event targets a single
// occurrence: every event the message enumerates either updates the stored
// exception for its recurrence identifier or forks a new one.
func (s *ReconciliationService) processOccurrenceReply(ctx context.Context, master *models.Event, msg *models.IncomingSchedulingMessage, result *models.ReconciliationResult) error {
	for _, msgEvent := range msg.Resource.AllEvents() {
		if msgEvent.RecurrenceID == nil {
			return domain.NewValidationError(
				fmt.Sprintf("event %q in occurrence-targeted reply carries no recurrence identifier", msgEvent.UID))
		}
		recurrenceID := *msgEvent.RecurrenceID

		replying, err := s.attendeeMatcher.ResolveReplyingAttendee(ctx, msgEvent, &msg.Originator, msg.Source)
		if err != nil {
			return err
		}

		exception, err := s.eventRepository.GetChangeException(ctx, master.ID, recurrenceID)
		if err != nil {
			if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
				return err
			}
			if _, err := s.occurrenceResolver.CreateChangeException(ctx, master, recurrenceID, &replying, result); err != nil {
				return err
			}
			continue
		}

		if err := s.applyAttendeeUpdate(ctx, exception, &replying, result); err != nil {
			return err
		}
	}
	return nil
}

// applyAttendeeUpdate persists a prepared attendee update on the event and
// rebuilds its alarm triggers. A None update is a no-op.
func (s *ReconciliationService) applyAttendeeUpdate(ctx context.Context, event *models.Event, replying *models.Attendee, result *models.ReconciliationResult) error {
	update, ok := s.updatePreparer.PrepareUpdate(ctx, event, replying).Get()
	if !ok {
		return nil
	}

	if err := s.attendeeRepository.UpdateAttendee(ctx, event.ID, update); err != nil {
		return err
	}

	updated := event.WithAttendee(update.Updated)
	result.TrackUpdate(event, updated)

	// The attendee set changed, so the precomputed triggers are rebuilt.
	return recomputeAlarmTriggers(ctx, s.alarmRepository, updated)
}
