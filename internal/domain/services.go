// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// RecurrenceService validates recurrence identifiers against a series
// master's pattern.
type RecurrenceService interface {
	// RecurrenceIDExists reports whether the recurrence identifier denotes
	// a valid, still-existing occurrence of the master's pattern.
	RecurrenceIDExists(ctx context.Context, master *models.Event, recurrenceID string) (bool, error)
}

// QuotaService guards configured size limits on events.
type QuotaService interface {
	// CheckEvent fails with a quota error if the event exceeds configured
	// attendee or extended property maxima.
	CheckEvent(ctx context.Context, event *models.Event) error
}

// PermissionService guards write access to events.
type PermissionService interface {
	RequireWritePermissions(ctx context.Context, event *models.Event, change *models.Event, isDelete bool) error
}

// ReconciliationNotificationSender hands a finished reconciliation result to
// the outbound notification pipeline.
type ReconciliationNotificationSender interface {
	SendReconciliationResult(ctx context.Context, result *models.ReconciliationResult) error
}
