// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
	"github.com/groupware-project/scheduling-reply-service/pkg/concurrent"
	"github.com/groupware-project/scheduling-reply-service/pkg/constants"
)

// notificationWorkers bounds concurrent publishes when fanning out one
// reconciliation result.
const notificationWorkers = 4

// INatsConn is the NATS connection surface the message builder needs.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder builds outbound notification messages and publishes them to
// the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// sendMessage sends the message to the NATS server.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// SendReconciliationResult publishes one notification per tracked mutation.
// Mutations of the same event are published in tracking order; distinct
// events fan out concurrently.
func (m *MessageBuilder) SendReconciliationResult(ctx context.Context, result *models.ReconciliationResult) error {
	if result == nil || result.Empty() {
		return nil
	}

	groups := groupByEvent(result.Mutations())

	tasks := make([]func() error, 0, len(groups))
	for _, group := range groups {
		group := group
		tasks = append(tasks, func() error {
			for _, mutation := range group {
				action := models.ActionUpdated
				if mutation.Kind == models.MutationCreated {
					action = models.ActionCreated
				}
				if err := m.sendNotification(ctx, action, mutation.Updated); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return concurrent.NewWorkerPool(notificationWorkers).Run(ctx, tasks...)
}

// sendNotification shapes one event snapshot into the notification payload
// and publishes it.
func (m *MessageBuilder) sendNotification(ctx context.Context, action models.MessageAction, event *models.Event) error {
	dataBytes, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling event into JSON", logging.ErrKey, err)
		return err
	}

	// The dispatcher expects a generic JSON object, decoded through the
	// json field names.
	var jsonData any
	if err := json.Unmarshal(dataBytes, &jsonData); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling event data", logging.ErrKey, err)
		return err
	}

	var payload map[string]any
	config := mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &payload,
	}
	decoder, err := mapstructure.NewDecoder(&config)
	if err != nil {
		slog.ErrorContext(ctx, "error creating decoder", logging.ErrKey, err)
		return err
	}
	if err := decoder.Decode(jsonData); err != nil {
		slog.ErrorContext(ctx, "error decoding event data", logging.ErrKey, err)
		return err
	}

	message := models.SchedulingNotificationMessage{
		Action:   action,
		EventID:  event.ID,
		SeriesID: event.SeriesID,
		Data:     payload,
		Tags:     notificationTags(event),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message into JSON", logging.ErrKey, err)
		return err
	}

	slog.DebugContext(ctx, "constructed notification message",
		"action", action,
		"event_id", event.ID,
		"tags_count", len(message.Tags),
	)

	return m.sendMessage(ctx, constants.SchedulingNotificationSubject, messageBytes)
}

// notificationTags collects the routing tags of an event: uid, calendar and
// every attendee address.
func notificationTags(event *models.Event) []string {
	tags := []string{event.UID}
	if event.CalendarID != "" {
		tags = append(tags, event.CalendarID)
	}
	for i := range event.Attendees {
		if address := event.Attendees[i].CalendarAddress(); address != "" {
			tags = append(tags, address)
		}
	}
	return tags
}

// groupByEvent partitions mutations by the mutated event, preserving
// tracking order within each group and across group first appearance.
func groupByEvent(mutations []models.Mutation) [][]models.Mutation {
	index := make(map[string]int)
	var groups [][]models.Mutation
	for _, mutation := range mutations {
		if mutation.Updated == nil {
			continue
		}
		i, ok := index[mutation.Updated.ID]
		if !ok {
			i = len(groups)
			index[mutation.Updated.ID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], mutation)
	}
	return groups
}

// Compile-time interface check
var _ domain.ReconciliationNotificationSender = (*MessageBuilder)(nil)
