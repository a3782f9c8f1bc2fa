// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
)

// PartyCrasherService adds attendees that reply to an event without being on
// its stored attendee list. The caller enforces the trigger-source gate;
// this service is only invoked for the trusted, directly user-invoked path.
type PartyCrasherService struct {
	eventRepository    domain.EventRepository
	eventResolver      domain.EventResolver
	attendeeRepository domain.AttendeeRepository
	quotaService       domain.QuotaService
	permissionService  domain.PermissionService
}

// NewPartyCrasherService creates a new PartyCrasherService.
func NewPartyCrasherService(
	eventRepository domain.EventRepository,
	eventResolver domain.EventResolver,
	attendeeRepository domain.AttendeeRepository,
	quotaService domain.QuotaService,
	permissionService domain.PermissionService,
) *PartyCrasherService {
	return &PartyCrasherService{
		eventRepository:    eventRepository,
		eventResolver:      eventResolver,
		attendeeRepository: attendeeRepository,
		quotaService:       quotaService,
		permissionService:  permissionService,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *PartyCrasherService) ServiceReady() bool {
	return s.eventRepository != nil &&
		s.eventResolver != nil &&
		s.attendeeRepository != nil &&
		s.quotaService != nil &&
		s.permissionService != nil
}

// AddPartyCrasher adds the unknown replying attendee to the targeted
// event(s). A whole-series reply applies to the series master only; an
// occurrence-targeted reply applies independently to each event the message
// enumerates.
func (s *PartyCrasherService) AddPartyCrasher(ctx context.Context, msg *models.IncomingSchedulingMessage, original *models.Event, crasher *models.Attendee, result *models.ReconciliationResult) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("party crasher service is not ready")
	}

	email := crasher.Email
	if email == "" {
		email = crasher.CalendarAddress()
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.NewValidationError(
			fmt.Sprintf("party crasher address %q is not a valid email address", email), err)
	}

	attendee := s.buildAttendee(msg, crasher)
	ctx = logging.AppendCtx(ctx, slog.String("party_crasher", attendee.CalendarAddress()))

	if msg.Resource.FirstEvent.RecurrenceID == nil {
		// A full-series crash affects the pattern, not a snapshot of
		// current exceptions; any exception events the message carries
		// are ignored.
		return s.applyToEvent(ctx, original, attendee, result)
	}

	for _, event := range msg.Resource.AllEvents() {
		eventID, err := s.eventResolver.ResolveEventID(ctx, event.UID, event.RecurrenceID, msg.TargetUser)
		if err != nil {
			return err
		}
		stored, err := s.eventRepository.Get(ctx, eventID)
		if err != nil {
			return err
		}
		if err := s.applyToEvent(ctx, stored, attendee, result); err != nil {
			return err
		}
	}
	return nil
}

// buildAttendee assembles the minimal attendee to insert: contact fields
// plus the reply-tracked fields, stamped with the processing time.
func (s *PartyCrasherService) buildAttendee(msg *models.IncomingSchedulingMessage, crasher *models.Attendee) models.Attendee {
	attendee := crasher.AsIndividual()
	attendee.ParticipationStatus = crasher.ParticipationStatus
	attendee.Comment = crasher.Comment
	attendee.SentBy = crasher.SentBy
	attendee.ExtendedParameters = crasher.ExtendedParameters
	attendee.Timestamp = msg.ReceivedAt
	return attendee
}

func (s *PartyCrasherService) applyToEvent(ctx context.Context, stored *models.Event, attendee models.Attendee, result *models.ReconciliationResult) error {
	if existing := stored.FindAttendee(&attendee); existing != nil {
		slog.DebugContext(ctx, "attendee already present, skipping", "event_id", stored.ID)
		return nil
	}

	updated := stored.WithAttendee(attendee)
	if err := s.quotaService.CheckEvent(ctx, updated); err != nil {
		return err
	}
	if err := s.permissionService.RequireWritePermissions(ctx, stored, updated, false); err != nil {
		return err
	}

	_, revision, err := s.eventRepository.GetWithRevision(ctx, stored.ID)
	if err != nil {
		return err
	}
	if err := s.eventRepository.Update(ctx, updated, revision); err != nil {
		return err
	}
	if err := s.attendeeRepository.InsertAttendees(ctx, stored.ID, []models.Attendee{attendee}); err != nil {
		return err
	}

	result.TrackUpdate(stored, updated)
	slog.InfoContext(ctx, "added party crasher to event", "event_id", stored.ID)
	return nil
}
