// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package models

// MessageAction is the action of an outbound notification message.
type MessageAction string

const (
	ActionCreated MessageAction = "created"
	ActionUpdated MessageAction = "updated"
)

// ReplyEnvelope is the wire payload of an inbound scheduling reply message.
// CalendarData carries the raw iCalendar METHOD:REPLY text as extracted by
// the mail ingestion layer.
type ReplyEnvelope struct {
	Originator   string `json:"originator"`
	SentBy       string `json:"sent_by,omitempty"`
	TargetUser   int    `json:"target_user"`
	CalendarData string `json:"calendar_data"`
}

// SchedulingNotificationMessage is published once per tracked mutation for
// the outbound iTIP notification dispatcher.
type SchedulingNotificationMessage struct {
	Action   MessageAction  `json:"action"`
	EventID  string         `json:"event_id"`
	SeriesID string         `json:"series_id,omitempty"`
	Data     map[string]any `json:"data"`
	Tags     []string       `json:"tags"`
}
