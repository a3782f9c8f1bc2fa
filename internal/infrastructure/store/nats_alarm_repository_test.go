// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

func newAlarmedEvent() *models.Event {
	acked := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:        "evt-1",
		UID:       "uid-1",
		StartTime: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Organizer: &models.Attendee{URI: "mailto:org@example.com", EntityID: 7},
		Attendees: []models.Attendee{
			{URI: "mailto:ann@example.com", EntityID: 12},
			{URI: "mailto:external@example.net"}, // no internal account
		},
		Alarms: []models.Alarm{
			{ID: "alarm-1", Action: models.AlarmActionDisplay, TriggerOffset: -15 * time.Minute},
			{ID: "alarm-2", Action: models.AlarmActionEmail, TriggerOffset: -time.Hour, Acknowledged: &acked},
		},
	}
}

func TestNatsAlarmRepositoryLoadAlarms(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsAlarmRepository(newMockNatsKeyValue(), newMockNatsKeyValue())
	event := newAlarmedEvent()

	loaded, err := repo.LoadAlarms(ctx, event)
	require.NoError(t, err)

	// Organizer and internal attendee inherit the event alarms; the
	// external attendee gets none.
	require.Len(t, loaded, 2)
	assert.Len(t, loaded[7], 2)
	assert.Len(t, loaded[12], 2)
}

func TestNatsAlarmRepositoryTriggerLifecycle(t *testing.T) {
	ctx := context.Background()
	triggers := newMockNatsKeyValue()
	repo := NewNatsAlarmRepository(newMockNatsKeyValue(), triggers)
	event := newAlarmedEvent()

	loaded, err := repo.LoadAlarms(ctx, event)
	require.NoError(t, err)

	require.NoError(t, repo.InsertTriggers(ctx, event, loaded))

	// Acknowledged alarms produce no trigger: 2 users x 1 live alarm.
	assert.Len(t, triggers.data, 2)

	trigger, err := repo.triggers.Get(ctx, repo.keyBuilder.TriggerKey(event.ID, 7, "alarm-1"))
	require.NoError(t, err)
	assert.True(t, trigger.Time.Equal(event.StartTime.Add(-15*time.Minute)))
	assert.Equal(t, models.AlarmActionDisplay, trigger.Action)

	require.NoError(t, repo.DeleteTriggers(ctx, event.ID))
	assert.Empty(t, triggers.data)
}
