// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// WritePermissionGuard implements the write permission checks the
// reconciliation engine consumes. Reply processing only ever touches
// attendee participation state, so the guard rejects deletes outright and
// requires an internal organizer on the stored event.
type WritePermissionGuard struct{}

// NewWritePermissionGuard creates a new WritePermissionGuard.
func NewWritePermissionGuard() *WritePermissionGuard {
	return &WritePermissionGuard{}
}

// RequireWritePermissions fails with a forbidden error when the proposed
// change is not allowed on the event.
func (g *WritePermissionGuard) RequireWritePermissions(ctx context.Context, event *models.Event, change *models.Event, isDelete bool) error {
	if event == nil {
		return domain.NewValidationError("cannot check permissions without an event")
	}
	if isDelete {
		return domain.NewForbiddenError(
			fmt.Sprintf("reply processing must not delete event %q", event.UID))
	}
	if event.Organizer == nil || event.Organizer.EntityID == 0 {
		return domain.NewForbiddenError(
			fmt.Sprintf("event %q has no internal organizer, replies cannot be applied", event.UID))
	}
	if change != nil && change.ID != "" && change.ID != event.ID {
		return domain.NewValidationError(
			fmt.Sprintf("proposed change targets event %q, not %q", change.ID, event.ID))
	}
	return nil
}

// Compile-time interface check
var _ domain.PermissionService = (*WritePermissionGuard)(nil)
