// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package models

import "time"

// SchedulingMethod represents the iTIP method of a scheduling message
// (RFC 5546 §1.4).
type SchedulingMethod string

const (
	MethodRequest SchedulingMethod = "REQUEST"
	MethodReply   SchedulingMethod = "REPLY"
	MethodCancel  SchedulingMethod = "CANCEL"
	MethodCounter SchedulingMethod = "COUNTER"
)

// SchedulingSource identifies what triggered processing of a scheduling
// message. Only SourceAPI is a trusted, directly user-invoked path; anything
// else is automated processing of an inbound transport message.
type SchedulingSource string

const (
	// SourceAPI marks processing directly invoked by a user action.
	SourceAPI SchedulingSource = "api"
	// SourceMessage marks automated processing of an inbound transport
	// message (typically mail-based iTIP).
	SourceMessage SchedulingSource = "message"
)

// SchedulingObjectResource is the calendar object resource carried by a
// scheduling message: a first event plus any change exception events, each
// keyed by its recurrence identifier.
type SchedulingObjectResource struct {
	FirstEvent       *Event   `json:"first_event"`
	ChangeExceptions []*Event `json:"change_exceptions,omitempty"`
}

// ChangeException returns the change exception event for the given
// recurrence identifier, or nil if the message carries none.
func (r *SchedulingObjectResource) ChangeException(recurrenceID string) *Event {
	if r == nil {
		return nil
	}
	for _, event := range r.ChangeExceptions {
		if event != nil && event.RecurrenceID != nil && *event.RecurrenceID == recurrenceID {
			return event
		}
	}
	return nil
}

// AllEvents returns the first event followed by all change exceptions.
func (r *SchedulingObjectResource) AllEvents() []*Event {
	if r == nil {
		return nil
	}
	events := make([]*Event, 0, 1+len(r.ChangeExceptions))
	if r.FirstEvent != nil {
		events = append(events, r.FirstEvent)
	}
	events = append(events, r.ChangeExceptions...)
	return events
}

// IncomingSchedulingMessage is one external scheduling message handed to the
// reconciliation engine. It is constructed by the ingestion layer, consumed
// once, and discarded after processing.
type IncomingSchedulingMessage struct {
	Method     SchedulingMethod         `json:"method"`
	Source     SchedulingSource         `json:"source"`
	Originator Attendee                 `json:"originator"`  // calendar user who authored the reply
	TargetUser int                      `json:"target_user"` // internal user whose calendar is targeted
	Resource   SchedulingObjectResource `json:"resource"`
	ReceivedAt time.Time                `json:"received_at"`
}
