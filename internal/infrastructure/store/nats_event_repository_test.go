// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

func strPtr(s string) *string {
	return &s
}

func newStoredMaster() *models.Event {
	return &models.Event{
		ID:             "evt-series",
		UID:            "040000008200E00074C5B7101A82E008",
		OwnerID:        7,
		StartTime:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		RecurrenceRule: "FREQ=DAILY;COUNT=5",
		Organizer:      &models.Attendee{URI: "mailto:org@example.com", EntityID: 7},
		Attendees: []models.Attendee{
			{URI: "mailto:ann@example.com", ParticipationStatus: models.ParticipationNeedsAction},
		},
	}
}

func TestNatsEventRepositoryCreateAndResolve(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsEventRepository(newMockNatsKeyValue(), newMockNatsKeyValue())
	master := newStoredMaster()

	require.NoError(t, repo.Create(ctx, master))

	eventID, err := repo.ResolveEventID(ctx, master.UID, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, "evt-series", eventID)

	got, err := repo.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, master.UID, got.UID)
	assert.Len(t, got.Attendees, 1)

	// Another user's calendar knows nothing about this uid.
	_, err = repo.ResolveEventID(ctx, master.UID, nil, 99)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestNatsEventRepositoryChangeExceptions(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsEventRepository(newMockNatsKeyValue(), newMockNatsKeyValue())
	master := newStoredMaster()
	require.NoError(t, repo.Create(ctx, master))

	recurrenceID := "20260303T100000Z"
	exception := master.Copy()
	exception.ID = "exc-1"
	exception.SeriesID = master.ID
	exception.RecurrenceID = strPtr(recurrenceID)
	exception.RecurrenceRule = ""
	require.NoError(t, repo.Create(ctx, exception))

	t.Run("occurrence index resolves the exception", func(t *testing.T) {
		got, err := repo.GetChangeException(ctx, master.ID, recurrenceID)
		require.NoError(t, err)
		assert.Equal(t, "exc-1", got.ID)
	})

	t.Run("unmaterialized occurrence is not found", func(t *testing.T) {
		_, err := repo.GetChangeException(ctx, master.ID, "20260304T100000Z")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})

	t.Run("series index lists all exceptions", func(t *testing.T) {
		exceptions, err := repo.ListChangeExceptions(ctx, master.ID)
		require.NoError(t, err)
		require.Len(t, exceptions, 1)
		assert.Equal(t, "exc-1", exceptions[0].ID)
	})

	t.Run("uid index resolves the occurrence slot", func(t *testing.T) {
		eventID, err := repo.ResolveEventID(ctx, master.UID, strPtr(recurrenceID), 7)
		require.NoError(t, err)
		assert.Equal(t, "exc-1", eventID)
	})
}

func TestNatsEventRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsEventRepository(newMockNatsKeyValue(), newMockNatsKeyValue())
	master := newStoredMaster()
	require.NoError(t, repo.Create(ctx, master))

	stored, revision, err := repo.GetWithRevision(ctx, master.ID)
	require.NoError(t, err)

	updated := stored.Copy()
	updated.ChangeExceptionDates = append(updated.ChangeExceptionDates, "20260303T100000Z")
	require.NoError(t, repo.Update(ctx, updated, revision))

	t.Run("stale revision conflicts", func(t *testing.T) {
		err := repo.Update(ctx, updated, revision)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))
	})

	t.Run("update persisted", func(t *testing.T) {
		got, err := repo.Get(ctx, master.ID)
		require.NoError(t, err)
		assert.Contains(t, got.ChangeExceptionDates, "20260303T100000Z")
	})
}

func TestNatsEventRepositoryValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsEventRepository(newMockNatsKeyValue(), newMockNatsKeyValue())

	err := repo.Create(ctx, &models.Event{})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))

	err = repo.Update(ctx, nil, 1)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}
