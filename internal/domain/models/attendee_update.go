// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package models

import "slices"

// AttendeeUpdate pairs a stored attendee with its proposed replacement,
// restricted to the reply-tracked field set: participation status, comment,
// extended parameters, sent-by and timestamp. It is produced transiently
// during reconciliation and never persisted as such.
type AttendeeUpdate struct {
	Original Attendee `json:"original"`
	Updated  Attendee `json:"updated"`
}

// NewAttendeeUpdate builds the update for one stored attendee by overlaying
// exactly the tracked fields from the replying attendee onto a full copy of
// the original.
func NewAttendeeUpdate(original Attendee, replying Attendee) AttendeeUpdate {
	updated := original
	updated.ExtendedParameters = slices.Clone(original.ExtendedParameters)

	updated.ParticipationStatus = replying.ParticipationStatus
	updated.Comment = replying.Comment
	updated.SentBy = replying.SentBy
	updated.Timestamp = replying.Timestamp
	if replying.ExtendedParameters != nil {
		updated.ExtendedParameters = slices.Clone(replying.ExtendedParameters)
	}

	return AttendeeUpdate{Original: original, Updated: updated}
}

// Empty reports whether no tracked field actually differs between the
// original and the updated attendee. Timestamp alone does not make an update
// non-empty; a changed timestamp without a changed tracked field is a no-op.
func (u AttendeeUpdate) Empty() bool {
	return u.Original.ParticipationStatus == u.Updated.ParticipationStatus &&
		u.Original.Comment == u.Updated.Comment &&
		u.Original.SentBy == u.Updated.SentBy &&
		slices.Equal(u.Original.ExtendedParameters, u.Updated.ExtendedParameters)
}
