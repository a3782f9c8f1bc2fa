// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package models

import "time"

// AlarmAction represents the ACTION of a VALARM component.
type AlarmAction string

const (
	AlarmActionDisplay AlarmAction = "DISPLAY"
	AlarmActionEmail   AlarmAction = "EMAIL"
	AlarmActionAudio   AlarmAction = "AUDIO"
)

// Alarm represents one reminder definition attached to an event.
type Alarm struct {
	ID            string        `json:"id"`
	UID           string        `json:"uid,omitempty"`
	Action        AlarmAction   `json:"action"`
	TriggerOffset time.Duration `json:"trigger_offset"` // relative to occurrence start, negative = before
	Description   string        `json:"description,omitempty"`
	Acknowledged  *time.Time    `json:"acknowledged,omitempty"`
}

// AlarmTrigger is a precomputed, storage-resident scheduling record used to
// fire one reminder. Derived from alarms, the attendee set and the occurrence
// time; always rebuilt wholesale, never patched.
type AlarmTrigger struct {
	EventID string      `json:"event_id"`
	AlarmID string      `json:"alarm_id"`
	UserID  int         `json:"user_id"`
	Time    time.Time   `json:"time"`
	Action  AlarmAction `json:"action"`
}

// CopyAlarms returns a deep copy of the given alarms. Alarms of a series
// master are cloned verbatim onto a newly forked change exception.
func CopyAlarms(alarms []Alarm) []Alarm {
	if alarms == nil {
		return nil
	}
	copied := make([]Alarm, len(alarms))
	copy(copied, alarms)
	for i := range copied {
		if alarms[i].Acknowledged != nil {
			acknowledged := *alarms[i].Acknowledged
			copied[i].Acknowledged = &acknowledged
		}
	}
	return copied
}
