// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"time"
)

// CalendarUserType represents the CUTYPE of a calendar user (RFC 5545 §3.2.3).
type CalendarUserType string

const (
	CalendarUserTypeIndividual CalendarUserType = "INDIVIDUAL"
	CalendarUserTypeGroup      CalendarUserType = "GROUP"
	CalendarUserTypeResource   CalendarUserType = "RESOURCE"
	CalendarUserTypeRoom       CalendarUserType = "ROOM"
	CalendarUserTypeUnknown    CalendarUserType = "UNKNOWN"
)

// ParticipationStatus represents the PARTSTAT of an attendee (RFC 5545 §3.2.12).
type ParticipationStatus string

const (
	ParticipationNeedsAction ParticipationStatus = "NEEDS-ACTION"
	ParticipationAccepted    ParticipationStatus = "ACCEPTED"
	ParticipationDeclined    ParticipationStatus = "DECLINED"
	ParticipationTentative   ParticipationStatus = "TENTATIVE"
	ParticipationDelegated   ParticipationStatus = "DELEGATED"
)

// Parameter is a free-form iCalendar parameter carried on an attendee.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attendee represents one calendar user on an event. Identity is the
// (calendar user type, calendar address) pair, never a surrogate key.
type Attendee struct {
	URI                 string              `json:"uri"`       // calendar address, usually mailto:
	Email               string              `json:"email"`     // plain address, fallback identity
	CommonName          string              `json:"common_name,omitempty"`
	CUType              CalendarUserType    `json:"cutype,omitempty"`
	EntityID            int                 `json:"entity_id,omitempty"` // internal user id, 0 for external users
	Organizer           bool                `json:"organizer,omitempty"`
	ParticipationStatus ParticipationStatus `json:"participation_status,omitempty"`
	Comment             string              `json:"comment,omitempty"`
	SentBy              string              `json:"sent_by,omitempty"`
	ExtendedParameters  []Parameter         `json:"extended_parameters,omitempty"`
	Timestamp           time.Time           `json:"timestamp"` // last modification of this attendee's participation
}

// CalendarAddress returns the attendee's canonical address used for identity
// comparisons: the URI when set, otherwise a mailto: form of the email.
func (a *Attendee) CalendarAddress() string {
	if a.URI != "" {
		return normalizeAddress(a.URI)
	}
	if a.Email != "" {
		return normalizeAddress("mailto:" + a.Email)
	}
	return ""
}

// Matches reports whether two attendees denote the same calendar user.
// Addresses compare case-insensitively; an unset CUType counts as INDIVIDUAL.
func (a *Attendee) Matches(other *Attendee) bool {
	if a == nil || other == nil {
		return false
	}
	if effectiveCUType(a.CUType) != effectiveCUType(other.CUType) {
		return false
	}
	address := a.CalendarAddress()
	return address != "" && address == other.CalendarAddress()
}

// MatchesAddress reports whether the attendee's calendar address equals the
// given address, ignoring the calendar user type.
func (a *Attendee) MatchesAddress(address string) bool {
	if a == nil || address == "" {
		return false
	}
	normalized := normalizeAddress(address)
	if !strings.Contains(normalized, ":") {
		normalized = "mailto:" + normalized
	}
	return a.CalendarAddress() == normalized
}

// AsIndividual returns a fresh attendee carrying only the identity and
// contact fields, with the calendar user type forced to INDIVIDUAL. A reply
// is always authored by an individual even if the event lists the entry as a
// resource or group.
func (a *Attendee) AsIndividual() Attendee {
	return Attendee{
		URI:        a.URI,
		Email:      a.Email,
		CommonName: a.CommonName,
		CUType:     CalendarUserTypeIndividual,
		EntityID:   a.EntityID,
	}
}

func effectiveCUType(cuType CalendarUserType) CalendarUserType {
	if cuType == "" {
		return CalendarUserTypeIndividual
	}
	return cuType
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
