// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
)

// OccurrenceResolver materializes change exceptions of a recurring series
// when a reply targets an occurrence that has no stored override yet.
type OccurrenceResolver struct {
	eventRepository    domain.EventRepository
	attendeeRepository domain.AttendeeRepository
	alarmRepository    domain.AlarmRepository
	recurrenceService  domain.RecurrenceService
	quotaService       domain.QuotaService
	updatePreparer     *UpdatePreparer
}

// NewOccurrenceResolver creates a new OccurrenceResolver.
func NewOccurrenceResolver(
	eventRepository domain.EventRepository,
	attendeeRepository domain.AttendeeRepository,
	alarmRepository domain.AlarmRepository,
	recurrenceService domain.RecurrenceService,
	quotaService domain.QuotaService,
	updatePreparer *UpdatePreparer,
) *OccurrenceResolver {
	return &OccurrenceResolver{
		eventRepository:    eventRepository,
		attendeeRepository: attendeeRepository,
		alarmRepository:    alarmRepository,
		recurrenceService:  recurrenceService,
		quotaService:       quotaService,
		updatePreparer:     updatePreparer,
	}
}

// ServiceReady checks if the service is ready for use.
func (r *OccurrenceResolver) ServiceReady() bool {
	return r.eventRepository != nil &&
		r.attendeeRepository != nil &&
		r.alarmRepository != nil &&
		r.recurrenceService != nil &&
		r.quotaService != nil &&
		r.updatePreparer != nil
}

// CreateChangeException forks a new change exception of seriesMaster for the
// given recurrence identifier, applies the replying attendee's update to it
// and registers the occurrence as materialized on the master. Both the
// master's and the exception's alarm triggers are rebuilt. All mutations are
// recorded on result in call order.
func (r *OccurrenceResolver) CreateChangeException(ctx context.Context, seriesMaster *models.Event, recurrenceID string, replying *models.Attendee, result *models.ReconciliationResult) (*models.Event, error) {
	ctx = logging.AppendCtx(ctx, slog.String("series_id", seriesMaster.ID))
	ctx = logging.AppendCtx(ctx, slog.String("recurrence_id", recurrenceID))

	exists, err := r.recurrenceService.RecurrenceIDExists(ctx, seriesMaster, recurrenceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewValidationError(
			fmt.Sprintf("recurrence identifier %q is not an occurrence of series %q", recurrenceID, seriesMaster.ID))
	}

	// The master's alarms are cloned verbatim onto the exception before any
	// attendee-driven mutation happens.
	clonedAlarms := models.CopyAlarms(seriesMaster.Alarms)

	exception := r.buildException(seriesMaster, recurrenceID, clonedAlarms)
	if err := r.quotaService.CheckEvent(ctx, exception); err != nil {
		return nil, err
	}

	if err := r.eventRepository.Create(ctx, exception); err != nil {
		return nil, err
	}
	if err := r.attendeeRepository.InsertAttendees(ctx, exception.ID, exception.Attendees); err != nil {
		return nil, err
	}

	// Reload so generated fields (timestamps, normalized attendee rows) are
	// populated before the exception is tracked and updated.
	persisted, err := r.eventRepository.Get(ctx, exception.ID)
	if err != nil {
		return nil, err
	}
	result.TrackCreation(persisted)
	slog.InfoContext(ctx, "created change exception", "exception_id", persisted.ID)

	// The attendee update runs against the newly created exception, not the
	// master.
	current := persisted
	if update, ok := r.updatePreparer.PrepareUpdate(ctx, persisted, replying).Get(); ok {
		if err := r.attendeeRepository.UpdateAttendee(ctx, persisted.ID, update); err != nil {
			return nil, err
		}
		current = persisted.WithAttendee(update.Updated)
		result.TrackUpdate(persisted, current)
	}

	if err := r.registerChangeException(ctx, seriesMaster, recurrenceID, result); err != nil {
		return nil, err
	}

	// The master's attendee set did not change, but exception creation can
	// shift effective trigger windows, so both trigger sets are rebuilt.
	if err := recomputeAlarmTriggers(ctx, r.alarmRepository, seriesMaster); err != nil {
		return nil, err
	}
	if err := recomputeAlarmTriggers(ctx, r.alarmRepository, current); err != nil {
		return nil, err
	}

	return current, nil
}

// buildException copies the series master's fields and overlays the
// recurrence identifier.
func (r *OccurrenceResolver) buildException(seriesMaster *models.Event, recurrenceID string, alarms []models.Alarm) *models.Event {
	exception := seriesMaster.Copy()
	exception.ID = uuid.New().String()
	exception.SeriesID = seriesMaster.ID
	exception.RecurrenceID = &recurrenceID
	exception.RecurrenceRule = ""
	exception.DeleteExceptionDates = nil
	exception.ChangeExceptionDates = nil
	exception.Alarms = alarms
	exception.Timestamp = time.Now().UTC()
	exception.CreatedAt = nil
	exception.UpdatedAt = nil

	if occurrence, err := ParseRecurrenceID(recurrenceID); err == nil {
		exception.StartTime = occurrence
	}

	return exception
}

// registerChangeException appends the recurrence identifier to the master's
// change exception date list and persists the master.
func (r *OccurrenceResolver) registerChangeException(ctx context.Context, seriesMaster *models.Event, recurrenceID string, result *models.ReconciliationResult) error {
	stored, revision, err := r.eventRepository.GetWithRevision(ctx, seriesMaster.ID)
	if err != nil {
		return err
	}

	updated := stored.Copy()
	updated.ChangeExceptionDates = append(updated.ChangeExceptionDates, recurrenceID)
	updated.Timestamp = time.Now().UTC()

	if err := r.eventRepository.Update(ctx, updated, revision); err != nil {
		return err
	}

	result.TrackUpdate(stored, updated)
	return nil
}
