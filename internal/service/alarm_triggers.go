// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// recomputeAlarmTriggers rebuilds the stored alarm triggers of one event.
// Triggers depend on the alarm set and the attendee set; recomputation is
// always delete-then-reinsert, never incremental.
func recomputeAlarmTriggers(ctx context.Context, alarms domain.AlarmRepository, event *models.Event) error {
	loaded, err := alarms.LoadAlarms(ctx, event)
	if err != nil {
		return domain.NewInternalError(
			fmt.Sprintf("failed to load alarms for event %q", event.ID), err)
	}

	if err := alarms.DeleteTriggers(ctx, event.ID); err != nil {
		return domain.NewInternalError(
			fmt.Sprintf("failed to delete alarm triggers of event %q", event.ID), err)
	}

	if err := alarms.InsertTriggers(ctx, event, loaded); err != nil {
		return domain.NewInternalError(
			fmt.Sprintf("failed to insert alarm triggers of event %q", event.ID), err)
	}

	slog.DebugContext(ctx, "recomputed alarm triggers", "event_id", event.ID)
	return nil
}
