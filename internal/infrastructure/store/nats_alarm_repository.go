// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// NatsAlarmRepository persists per-user alarm sets and the precomputed alarm
// triggers derived from them. Alarm sets live in their own bucket keyed by
// (event, user); triggers are always rebuilt wholesale per event.
type NatsAlarmRepository struct {
	alarms     *NatsBaseRepository[[]models.Alarm]
	triggers   *NatsBaseRepository[models.AlarmTrigger]
	keyBuilder *KeyBuilder
}

// NewNatsAlarmRepository creates a new NATS KV backed alarm repository.
func NewNatsAlarmRepository(alarms INatsKeyValue, triggers INatsKeyValue) *NatsAlarmRepository {
	return &NatsAlarmRepository{
		alarms:     NewNatsBaseRepository[[]models.Alarm](alarms, "alarm set"),
		triggers:   NewNatsBaseRepository[models.AlarmTrigger](triggers, "alarm trigger"),
		keyBuilder: NewKeyBuilder(),
	}
}

// IsReady checks if the repository is ready for use.
func (r *NatsAlarmRepository) IsReady() bool {
	return r.alarms.IsReady() && r.triggers.IsReady()
}

// LoadAlarms returns the effective alarm set per internal user on the event.
// Users with a stored per-user override get that set; everyone else inherits
// the event's own alarms.
func (r *NatsAlarmRepository) LoadAlarms(ctx context.Context, event *models.Event) (map[int][]models.Alarm, error) {
	if event == nil {
		return nil, domain.NewValidationError("cannot load alarms without an event")
	}

	loaded := make(map[int][]models.Alarm)
	for _, userID := range internalUserIDs(event) {
		stored, err := r.alarms.Get(ctx, r.keyBuilder.AlarmKey(event.ID, userID))
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				if len(event.Alarms) > 0 {
					loaded[userID] = models.CopyAlarms(event.Alarms)
				}
				continue
			}
			return nil, err
		}
		loaded[userID] = *stored
	}

	return loaded, nil
}

// DeleteTriggers removes every stored trigger of the event.
func (r *NatsAlarmRepository) DeleteTriggers(ctx context.Context, eventID string) error {
	keys, err := r.triggers.ListKeysWithPrefix(ctx, r.keyBuilder.TriggerPrefix(eventID))
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := r.triggers.DeleteWithoutRevision(ctx, key); err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			return err
		}
	}

	slog.DebugContext(ctx, "deleted alarm triggers", "event_id", eventID, "count", len(keys))
	return nil
}

// InsertTriggers computes and stores one trigger per (user, alarm) pair.
// Acknowledged alarms produce no trigger.
func (r *NatsAlarmRepository) InsertTriggers(ctx context.Context, event *models.Event, alarms map[int][]models.Alarm) error {
	if event == nil {
		return domain.NewValidationError("cannot insert triggers without an event")
	}

	inserted := 0
	for userID, userAlarms := range alarms {
		for _, alarm := range userAlarms {
			if alarm.Acknowledged != nil {
				continue
			}
			trigger := &models.AlarmTrigger{
				EventID: event.ID,
				AlarmID: alarm.ID,
				UserID:  userID,
				Time:    event.StartTime.Add(alarm.TriggerOffset),
				Action:  alarm.Action,
			}
			key := r.keyBuilder.TriggerKey(event.ID, userID, alarm.ID)
			if err := r.triggers.Create(ctx, key, trigger); err != nil {
				return err
			}
			inserted++
		}
	}

	slog.DebugContext(ctx, "inserted alarm triggers", "event_id", event.ID, "count", inserted)
	return nil
}

// internalUserIDs collects the internal user IDs with a stake in the event:
// the organizer and every attendee resolvable to an internal account.
func internalUserIDs(event *models.Event) []int {
	seen := make(map[int]bool)
	var ids []int
	add := func(id int) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if event.Organizer != nil {
		add(event.Organizer.EntityID)
	}
	for i := range event.Attendees {
		add(event.Attendees[i].EntityID)
	}
	return ids
}

// Compile-time interface check
var _ domain.AlarmRepository = (*NatsAlarmRepository)(nil)
