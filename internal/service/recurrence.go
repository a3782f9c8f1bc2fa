// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// Recurrence identifiers use the iCalendar UTC date-time form.
const recurrenceIDLayout = "20060102T150405Z"

// RecurrenceEngine validates recurrence identifiers against a series
// master's recurrence rule.
type RecurrenceEngine struct{}

// NewRecurrenceEngine creates a new RecurrenceEngine.
func NewRecurrenceEngine() *RecurrenceEngine {
	return &RecurrenceEngine{}
}

// RecurrenceIDExists reports whether recurrenceID denotes a valid,
// still-existing occurrence of the master's pattern. Occurrences removed via
// delete exception dates no longer exist.
func (e *RecurrenceEngine) RecurrenceIDExists(ctx context.Context, master *models.Event, recurrenceID string) (bool, error) {
	occurrence, err := ParseRecurrenceID(recurrenceID)
	if err != nil {
		return false, err
	}

	if master.HasDeleteExceptionDate(recurrenceID) {
		return false, nil
	}

	if master.RecurrenceRule == "" {
		return occurrence.Equal(master.StartTime.UTC()), nil
	}

	occurrences, err := e.expandAround(master, occurrence)
	if err != nil {
		return false, err
	}

	for _, candidate := range occurrences {
		if candidate.UTC().Equal(occurrence) {
			return true, nil
		}
	}
	return false, nil
}

// expandAround expands the master's rule in a window around the candidate
// occurrence. Between is inclusive of start and exclusive of end in
// rrule-go, so the window extends one second past the candidate.
func (e *RecurrenceEngine) expandAround(master *models.Event, occurrence time.Time) ([]time.Time, error) {
	dtstart := master.StartTime.UTC().Format(recurrenceIDLayout)
	set, err := rrule.StrToRRuleSet(fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart, master.RecurrenceRule))
	if err != nil {
		return nil, domain.NewInternalError(
			fmt.Sprintf("failed to parse recurrence rule %q of event %q", master.RecurrenceRule, master.ID), err)
	}

	return set.Between(occurrence, occurrence.Add(time.Second), true), nil
}

// ParseRecurrenceID parses the UTC date-time form of a recurrence
// identifier.
func ParseRecurrenceID(recurrenceID string) (time.Time, error) {
	occurrence, err := time.Parse(recurrenceIDLayout, recurrenceID)
	if err != nil {
		return time.Time{}, domain.NewValidationError(
			fmt.Sprintf("malformed recurrence identifier %q", recurrenceID), err)
	}
	return occurrence, nil
}

// FormatRecurrenceID formats an occurrence time as a recurrence identifier.
func FormatRecurrenceID(occurrence time.Time) string {
	return occurrence.UTC().Format(recurrenceIDLayout)
}

// Compile-time interface check
var _ domain.RecurrenceService = (*RecurrenceEngine)(nil)
