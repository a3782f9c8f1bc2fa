// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// QuotaChecker enforces the configured event size limits.
type QuotaChecker struct {
	config ServiceConfig
}

// NewQuotaChecker creates a new QuotaChecker.
func NewQuotaChecker(config ServiceConfig) *QuotaChecker {
	return &QuotaChecker{config: config}
}

// CheckEvent fails with a quota error if the event exceeds the configured
// attendee or extended property maxima.
func (q *QuotaChecker) CheckEvent(ctx context.Context, event *models.Event) error {
	if q.config.MaxAttendeesPerEvent > 0 && len(event.Attendees) > q.config.MaxAttendeesPerEvent {
		return domain.NewQuotaExceededError(
			fmt.Sprintf("event %q has %d attendees, maximum is %d",
				event.UID, len(event.Attendees), q.config.MaxAttendeesPerEvent))
	}
	if q.config.MaxExtendedProperties > 0 && len(event.ExtendedProperties) > q.config.MaxExtendedProperties {
		return domain.NewQuotaExceededError(
			fmt.Sprintf("event %q has %d extended properties, maximum is %d",
				event.UID, len(event.ExtendedProperties), q.config.MaxExtendedProperties))
	}
	return nil
}

// Compile-time interface check
var _ domain.QuotaService = (*QuotaChecker)(nil)
