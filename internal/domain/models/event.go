// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"slices"
	"time"
)

// Extended property names with reconciliation-specific handling.
const (
	// PropertyComment is relocated from the event onto the replying
	// attendee during attendee resolution.
	PropertyComment = "COMMENT"
)

// ExtendedProperty is a free-form name/value/parameter triple on an event.
type ExtendedProperty struct {
	Name       string      `json:"name"`
	Value      string      `json:"value"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Event is one stored calendar object. A series master carries the recurrence
// rule and a nil RecurrenceID; a change exception carries a non-nil
// RecurrenceID pinning it to one occurrence of its series.
type Event struct {
	ID                   string             `json:"id"`
	UID                  string             `json:"uid"`
	SeriesID             string             `json:"series_id,omitempty"`
	RecurrenceID         *string            `json:"recurrence_id,omitempty"`
	CalendarID           string             `json:"calendar_id,omitempty"`
	OwnerID              int                `json:"owner_id,omitempty"` // internal user whose calendar stores the event
	Summary              string             `json:"summary,omitempty"`
	StartTime            time.Time          `json:"start_time"`
	Timezone             string             `json:"timezone,omitempty"`
	RecurrenceRule       string             `json:"recurrence_rule,omitempty"`
	DeleteExceptionDates []string           `json:"delete_exception_dates,omitempty"`
	ChangeExceptionDates []string           `json:"change_exception_dates,omitempty"`
	Organizer            *Attendee          `json:"organizer,omitempty"`
	Attendees            []Attendee         `json:"attendees,omitempty"`
	Alarms               []Alarm            `json:"alarms,omitempty"`
	ExtendedProperties   []ExtendedProperty `json:"extended_properties,omitempty"`
	Timestamp            time.Time          `json:"timestamp"` // DTSTAMP of the stored object
	CreatedAt            *time.Time         `json:"created_at,omitempty"`
	UpdatedAt            *time.Time         `json:"updated_at,omitempty"`
}

// IsSeriesMaster reports whether the event is the base recurring event
// defining the recurrence pattern.
func (e *Event) IsSeriesMaster() bool {
	return e != nil && e.RecurrenceRule != "" && e.RecurrenceID == nil
}

// IsChangeException reports whether the event is a materialized override of
// one occurrence of a series.
func (e *Event) IsChangeException() bool {
	return e != nil && e.RecurrenceID != nil
}

// FindAttendee returns the stored attendee matching the given one by calendar
// user identity, or nil if the attendee is not part of the event.
func (e *Event) FindAttendee(attendee *Attendee) *Attendee {
	if e == nil || attendee == nil {
		return nil
	}
	for i := range e.Attendees {
		if e.Attendees[i].Matches(attendee) {
			return &e.Attendees[i]
		}
	}
	return nil
}

// GetExtendedProperty returns the first extended property with the given
// name, or nil.
func (e *Event) GetExtendedProperty(name string) *ExtendedProperty {
	if e == nil {
		return nil
	}
	for i := range e.ExtendedProperties {
		if e.ExtendedProperties[i].Name == name {
			return &e.ExtendedProperties[i]
		}
	}
	return nil
}

// RemoveExtendedProperty deletes all extended properties with the given name.
func (e *Event) RemoveExtendedProperty(name string) {
	if e == nil {
		return
	}
	e.ExtendedProperties = slices.DeleteFunc(e.ExtendedProperties, func(p ExtendedProperty) bool {
		return p.Name == name
	})
}

// HasChangeExceptionDate reports whether the recurrence identifier is already
// registered as a materialized occurrence on the series master.
func (e *Event) HasChangeExceptionDate(recurrenceID string) bool {
	return e != nil && slices.Contains(e.ChangeExceptionDates, recurrenceID)
}

// HasDeleteExceptionDate reports whether the occurrence was deleted from the
// series.
func (e *Event) HasDeleteExceptionDate(recurrenceID string) bool {
	return e != nil && slices.Contains(e.DeleteExceptionDates, recurrenceID)
}

// Copy returns a deep copy of the event. Loaded event snapshots are
// disposable projections; mutations happen on copies and storage stays the
// system of record.
func (e *Event) Copy() *Event {
	if e == nil {
		return nil
	}
	copied := *e
	if e.RecurrenceID != nil {
		recurrenceID := *e.RecurrenceID
		copied.RecurrenceID = &recurrenceID
	}
	copied.DeleteExceptionDates = slices.Clone(e.DeleteExceptionDates)
	copied.ChangeExceptionDates = slices.Clone(e.ChangeExceptionDates)
	if e.Organizer != nil {
		organizer := *e.Organizer
		copied.Organizer = &organizer
	}
	copied.Attendees = copyAttendees(e.Attendees)
	copied.Alarms = CopyAlarms(e.Alarms)
	copied.ExtendedProperties = copyExtendedProperties(e.ExtendedProperties)
	if e.CreatedAt != nil {
		createdAt := *e.CreatedAt
		copied.CreatedAt = &createdAt
	}
	if e.UpdatedAt != nil {
		updatedAt := *e.UpdatedAt
		copied.UpdatedAt = &updatedAt
	}
	return &copied
}

// WithAttendee returns a copy of the event with the matching attendee
// replaced (or appended when absent).
func (e *Event) WithAttendee(attendee Attendee) *Event {
	copied := e.Copy()
	for i := range copied.Attendees {
		if copied.Attendees[i].Matches(&attendee) {
			copied.Attendees[i] = attendee
			return copied
		}
	}
	copied.Attendees = append(copied.Attendees, attendee)
	return copied
}

func copyAttendees(attendees []Attendee) []Attendee {
	if attendees == nil {
		return nil
	}
	copied := make([]Attendee, len(attendees))
	copy(copied, attendees)
	for i := range copied {
		copied[i].ExtendedParameters = slices.Clone(attendees[i].ExtendedParameters)
	}
	return copied
}

func copyExtendedProperties(properties []ExtendedProperty) []ExtendedProperty {
	if properties == nil {
		return nil
	}
	copied := make([]ExtendedProperty, len(properties))
	copy(copied, properties)
	for i := range copied {
		copied[i].Parameters = slices.Clone(properties[i].Parameters)
	}
	return copied
}
