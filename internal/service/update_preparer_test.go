// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

func TestPrepareUpdate(t *testing.T) {
	ctx := context.Background()
	preparer := NewUpdatePreparer()

	storedTime := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newerTime := storedTime.Add(time.Hour)

	stored := models.Attendee{
		URI:                 "mailto:ann@example.com",
		CommonName:          "Ann",
		ParticipationStatus: models.ParticipationNeedsAction,
		Timestamp:           storedTime,
	}

	tests := []struct {
		name       string
		event      *models.Event
		replying   models.Attendee
		wantUpdate bool
		wantStatus models.ParticipationStatus
	}{
		{
			name:  "accept produces update",
			event: &models.Event{ID: "evt-1", Attendees: []models.Attendee{stored}},
			replying: models.Attendee{
				URI:                 "mailto:ann@example.com",
				ParticipationStatus: models.ParticipationAccepted,
				Timestamp:           newerTime,
			},
			wantUpdate: true,
			wantStatus: models.ParticipationAccepted,
		},
		{
			name:  "stale reply is discarded",
			event: &models.Event{ID: "evt-1", Attendees: []models.Attendee{stored}},
			replying: models.Attendee{
				URI:                 "mailto:ann@example.com",
				ParticipationStatus: models.ParticipationAccepted,
				Timestamp:           storedTime,
			},
			wantUpdate: false,
		},
		{
			name:  "unknown attendee is discarded",
			event: &models.Event{ID: "evt-1", Attendees: []models.Attendee{stored}},
			replying: models.Attendee{
				URI:                 "mailto:stranger@example.com",
				ParticipationStatus: models.ParticipationAccepted,
				Timestamp:           newerTime,
			},
			wantUpdate: false,
		},
		{
			name:  "newer timestamp with no field change is discarded",
			event: &models.Event{ID: "evt-1", Attendees: []models.Attendee{stored}},
			replying: models.Attendee{
				URI:                 "mailto:ann@example.com",
				ParticipationStatus: models.ParticipationNeedsAction,
				Timestamp:           newerTime,
			},
			wantUpdate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, ok := preparer.PrepareUpdate(ctx, tt.event, &tt.replying).Get()
			if !tt.wantUpdate {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, update.Updated.ParticipationStatus)
			assert.Equal(t, models.ParticipationNeedsAction, update.Original.ParticipationStatus)
			// Fields the reply does not track keep their stored values.
			assert.Equal(t, "Ann", update.Updated.CommonName)
		})
	}
}

func TestPrepareUpdateOverlaysTrackedFieldsOnly(t *testing.T) {
	storedTime := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := &models.Event{
		ID: "evt-1",
		Attendees: []models.Attendee{{
			URI:        "mailto:ann@example.com",
			CommonName: "Ann",
			EntityID:   7,
			Timestamp:  storedTime,
		}},
	}
	replying := &models.Attendee{
		URI:                 "mailto:ann@example.com",
		CommonName:          "A. N. Other",
		ParticipationStatus: models.ParticipationDeclined,
		Comment:             "Conflict",
		SentBy:              "mailto:assistant@example.com",
		Timestamp:           storedTime.Add(time.Minute),
	}

	update, ok := NewUpdatePreparer().PrepareUpdate(context.Background(), event, replying).Get()
	require.True(t, ok)

	assert.Equal(t, models.ParticipationDeclined, update.Updated.ParticipationStatus)
	assert.Equal(t, "Conflict", update.Updated.Comment)
	assert.Equal(t, "mailto:assistant@example.com", update.Updated.SentBy)
	assert.Equal(t, "Ann", update.Updated.CommonName)
	assert.Equal(t, 7, update.Updated.EntityID)
}
