// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
)

// NatsEventRepository is the NATS KV store repository for calendar events.
// Events live in their own bucket keyed by event ID; a second bucket holds
// the lookup indices (uid/owner, series membership, materialized occurrences)
// the reconciliation engine resolves against.
type NatsEventRepository struct {
	events     *NatsBaseRepository[models.Event]
	indices    *NatsBaseRepository[models.Event]
	keyBuilder *KeyBuilder
}

// NewNatsEventRepository creates a new NATS KV store repository for events.
func NewNatsEventRepository(events INatsKeyValue, indices INatsKeyValue) *NatsEventRepository {
	return &NatsEventRepository{
		events:     NewNatsBaseRepository[models.Event](events, "event"),
		indices:    NewNatsBaseRepository[models.Event](indices, "event index"),
		keyBuilder: NewKeyBuilder(),
	}
}

// IsReady checks if the repository is ready for use.
func (r *NatsEventRepository) IsReady() bool {
	return r.events.IsReady() && r.indices.IsReady()
}

// Get retrieves one event by its ID.
func (r *NatsEventRepository) Get(ctx context.Context, eventID string) (*models.Event, error) {
	return r.events.Get(ctx, r.keyBuilder.EventKey(eventID))
}

// GetWithRevision retrieves one event together with its store revision.
func (r *NatsEventRepository) GetWithRevision(ctx context.Context, eventID string) (*models.Event, uint64, error) {
	return r.events.GetWithRevision(ctx, r.keyBuilder.EventKey(eventID))
}

// GetBySeriesID retrieves the series master. Change exceptions carry their
// master's event ID as series ID, so this is a plain event lookup.
func (r *NatsEventRepository) GetBySeriesID(ctx context.Context, seriesID string) (*models.Event, error) {
	return r.Get(ctx, seriesID)
}

// ListChangeExceptions returns all materialized change exceptions of a series.
func (r *NatsEventRepository) ListChangeExceptions(ctx context.Context, seriesID string) ([]*models.Event, error) {
	prefix, err := r.keyBuilder.SeriesIndexPrefix(seriesID)
	if err != nil {
		return nil, domain.NewInternalError("failed to build series index prefix", err)
	}

	keys, err := r.indices.ListKeysWithPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	exceptions := make([]*models.Event, 0, len(keys))
	for _, key := range keys {
		eventID, err := r.indices.GetIndexValue(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable series index entry",
				logging.ErrKey, err, "index_key", key)
			continue
		}
		exception, err := r.Get(ctx, eventID)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				slog.WarnContext(ctx, "series index points at missing event",
					"index_key", key, "event_id", eventID)
				continue
			}
			return nil, err
		}
		exceptions = append(exceptions, exception)
	}

	return exceptions, nil
}

// GetChangeException returns the stored change exception of a series for the
// given recurrence identifier. A not-found error means no override has been
// materialized for the occurrence yet.
func (r *NatsEventRepository) GetChangeException(ctx context.Context, seriesID, recurrenceID string) (*models.Event, error) {
	indexKey, err := r.keyBuilder.OccurrenceIndexKey(seriesID, recurrenceID)
	if err != nil {
		return nil, domain.NewInternalError("failed to build occurrence index key", err)
	}

	eventID, err := r.indices.GetIndexValue(ctx, indexKey)
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, eventID)
}

// Create stores a new event and registers its lookup indices.
func (r *NatsEventRepository) Create(ctx context.Context, event *models.Event) error {
	if event == nil || event.ID == "" {
		return domain.NewValidationError("event to create needs an ID")
	}

	if err := r.events.Create(ctx, r.keyBuilder.EventKey(event.ID), event); err != nil {
		return err
	}

	uidKey, err := r.keyBuilder.UIDIndexKey(event.UID, event.OwnerID, event.RecurrenceID)
	if err != nil {
		return domain.NewInternalError("failed to build uid index key", err)
	}
	if err := r.indices.PutIndexValue(ctx, uidKey, event.ID); err != nil {
		return err
	}

	if event.RecurrenceID != nil && event.SeriesID != "" {
		seriesKey, err := r.keyBuilder.SeriesIndexKey(event.SeriesID, event.ID)
		if err != nil {
			return domain.NewInternalError("failed to build series index key", err)
		}
		if err := r.indices.PutIndexValue(ctx, seriesKey, event.ID); err != nil {
			return err
		}

		occurrenceKey, err := r.keyBuilder.OccurrenceIndexKey(event.SeriesID, *event.RecurrenceID)
		if err != nil {
			return domain.NewInternalError("failed to build occurrence index key", err)
		}
		if err := r.indices.PutIndexValue(ctx, occurrenceKey, event.ID); err != nil {
			return err
		}
	}

	slog.DebugContext(ctx, "created event in NATS KV", "event_id", event.ID)
	return nil
}

// Update replaces a stored event using optimistic concurrency control. The
// identity fields an index depends on never change on update, so indices are
// left untouched.
func (r *NatsEventRepository) Update(ctx context.Context, event *models.Event, revision uint64) error {
	if event == nil || event.ID == "" {
		return domain.NewValidationError("event to update needs an ID")
	}
	return r.events.Update(ctx, r.keyBuilder.EventKey(event.ID), event, revision)
}

// ResolveEventID resolves an iCalendar UID on a user's calendar to the stored
// event ID. A nil recurrenceID resolves the series master (or sole event).
func (r *NatsEventRepository) ResolveEventID(ctx context.Context, uid string, recurrenceID *string, targetUser int) (string, error) {
	indexKey, err := r.keyBuilder.UIDIndexKey(uid, targetUser, recurrenceID)
	if err != nil {
		return "", domain.NewInternalError("failed to build uid index key", err)
	}

	eventID, err := r.indices.GetIndexValue(ctx, indexKey)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return "", domain.NewNotFoundError(
				fmt.Sprintf("no event with uid %q on calendar of user %d", uid, targetUser), err)
		}
		return "", err
	}

	return eventID, nil
}

// Compile-time interface checks
var (
	_ domain.EventRepository = (*NatsEventRepository)(nil)
	_ domain.EventResolver   = (*NatsEventRepository)(nil)
)
