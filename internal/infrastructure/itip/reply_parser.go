// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

// Package itip parses iCalendar scheduling messages (RFC 5546) into the
// domain model consumed by the reconciliation engine.
package itip

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
)

// Recurrence identifiers and exception dates are normalized to the
// iCalendar UTC date-time form.
const (
	utcDateTimeLayout   = "20060102T150405Z"
	localDateTimeLayout = "20060102T150405"
	dateLayout          = "20060102"
)

const propRecurrenceID = "RECURRENCE-ID"

// ReplyParser turns raw iCalendar payloads into scheduling object resources.
type ReplyParser struct{}

// NewReplyParser creates a new ReplyParser.
func NewReplyParser() *ReplyParser {
	return &ReplyParser{}
}

// ParsedMessage is the outcome of parsing one iCalendar scheduling payload.
type ParsedMessage struct {
	Method   models.SchedulingMethod
	Resource models.SchedulingObjectResource
}

// Parse decodes an iCalendar stream and maps its VEVENT components onto the
// scheduling object resource. The component without a recurrence identifier
// becomes the first event; when every component targets an occurrence, the
// first one in document order does.
func (p *ReplyParser) Parse(ctx context.Context, r io.Reader) (*ParsedMessage, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, domain.NewValidationError("failed to parse iCalendar payload", err)
	}

	methodProp := cal.Props.Get(ical.PropMethod)
	if methodProp == nil || methodProp.Value == "" {
		return nil, domain.NewValidationError("iCalendar payload carries no METHOD")
	}
	method := models.SchedulingMethod(strings.ToUpper(methodProp.Value))

	var events []*models.Event
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		event, err := p.parseEvent(ctx, child)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if len(events) == 0 {
		return nil, domain.NewValidationError("iCalendar payload carries no VEVENT")
	}

	resource := models.SchedulingObjectResource{}
	for _, event := range events {
		if event.RecurrenceID == nil && resource.FirstEvent == nil {
			resource.FirstEvent = event
			continue
		}
		resource.ChangeExceptions = append(resource.ChangeExceptions, event)
	}
	if resource.FirstEvent == nil {
		resource.FirstEvent = resource.ChangeExceptions[0]
		resource.ChangeExceptions = resource.ChangeExceptions[1:]
	}

	slog.DebugContext(ctx, "parsed scheduling payload",
		"method", string(method),
		"uid", resource.FirstEvent.UID,
		"exceptions", len(resource.ChangeExceptions),
	)

	return &ParsedMessage{Method: method, Resource: resource}, nil
}

func (p *ReplyParser) parseEvent(ctx context.Context, comp *ical.Component) (*models.Event, error) {
	uidProp := comp.Props.Get(ical.PropUID)
	if uidProp == nil || uidProp.Value == "" {
		return nil, domain.NewValidationError("VEVENT carries no UID")
	}

	event := &models.Event{UID: uidProp.Value}

	if prop := comp.Props.Get(propRecurrenceID); prop != nil && prop.Value != "" {
		occurrence, err := parseDateTime(prop.Value)
		if err != nil {
			return nil, domain.NewValidationError(
				fmt.Sprintf("malformed RECURRENCE-ID %q", prop.Value), err)
		}
		recurrenceID := occurrence.UTC().Format(utcDateTimeLayout)
		event.RecurrenceID = &recurrenceID
	}

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil && prop.Value != "" {
		start, err := parseDateTime(prop.Value)
		if err != nil {
			return nil, domain.NewValidationError(
				fmt.Sprintf("malformed DTSTART %q", prop.Value), err)
		}
		event.StartTime = start
	}

	var timestamp time.Time
	if prop := comp.Props.Get(ical.PropDateTimeStamp); prop != nil && prop.Value != "" {
		parsed, err := parseDateTime(prop.Value)
		if err != nil {
			return nil, domain.NewValidationError(
				fmt.Sprintf("malformed DTSTAMP %q", prop.Value), err)
		}
		timestamp = parsed
	}
	event.Timestamp = timestamp

	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		event.Summary = prop.Value
	}
	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil {
		event.RecurrenceRule = prop.Value
	}
	for _, prop := range comp.Props.Values(ical.PropExceptionDates) {
		for _, raw := range strings.Split(prop.Value, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			date, err := parseDateTime(raw)
			if err != nil {
				slog.WarnContext(ctx, "skipping malformed EXDATE entry", "value", raw)
				continue
			}
			event.DeleteExceptionDates = append(event.DeleteExceptionDates,
				date.UTC().Format(utcDateTimeLayout))
		}
	}

	// A reply's COMMENT rides on the event and is relocated onto the
	// replying attendee downstream.
	if prop := comp.Props.Get(ical.PropComment); prop != nil && prop.Value != "" {
		event.ExtendedProperties = append(event.ExtendedProperties, models.ExtendedProperty{
			Name:  models.PropertyComment,
			Value: prop.Value,
		})
	}

	if prop := comp.Props.Get(ical.PropOrganizer); prop != nil && prop.Value != "" {
		organizer := parseCalendarUser(prop, timestamp)
		organizer.Organizer = true
		event.Organizer = &organizer
	}

	for _, prop := range comp.Props.Values(ical.PropAttendee) {
		event.Attendees = append(event.Attendees, parseCalendarUser(&prop, timestamp))
	}

	return event, nil
}

// parseCalendarUser maps an ATTENDEE or ORGANIZER property onto the domain
// attendee. The component's DTSTAMP doubles as the participation timestamp.
func parseCalendarUser(prop *ical.Prop, timestamp time.Time) models.Attendee {
	attendee := models.Attendee{
		URI:       prop.Value,
		Timestamp: timestamp,
	}
	if addr, ok := strings.CutPrefix(strings.ToLower(prop.Value), "mailto:"); ok {
		attendee.Email = addr
	}

	attendee.CommonName = prop.Params.Get(ical.ParamCommonName)
	if cuType := prop.Params.Get(ical.ParamCalendarUserType); cuType != "" {
		attendee.CUType = models.CalendarUserType(strings.ToUpper(cuType))
	}
	if partStat := prop.Params.Get(ical.ParamParticipationStatus); partStat != "" {
		attendee.ParticipationStatus = models.ParticipationStatus(strings.ToUpper(partStat))
	}
	attendee.SentBy = prop.Params.Get(ical.ParamSentBy)

	for name, values := range prop.Params {
		if !strings.HasPrefix(name, "X-") || len(values) == 0 {
			continue
		}
		attendee.ExtendedParameters = append(attendee.ExtendedParameters, models.Parameter{
			Name:  name,
			Value: values[0],
		})
	}

	return attendee
}

// parseDateTime accepts the UTC, floating and date-only iCalendar forms.
// Floating and date-only values are interpreted as UTC; scheduling replies
// reference occurrences by absolute time.
func parseDateTime(value string) (time.Time, error) {
	for _, layout := range []string{utcDateTimeLayout, localDateTimeLayout, dateLayout} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date-time form %q", value)
}
