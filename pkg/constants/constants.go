// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

// Package constants holds shared constants for the scheduling reply service.
package constants

// NATS subjects consumed by the reply processor.
const (
	// SchedulingReplyMessageSubject carries REPLY payloads extracted from
	// inbound transport messages (mail-based iTIP). Processing on this
	// subject is untrusted: unknown attendees are never added.
	SchedulingReplyMessageSubject = "groupware.scheduling.reply.message"

	// SchedulingReplyAPISubject carries REPLY payloads triggered directly
	// by a user action through the API layer.
	SchedulingReplyAPISubject = "groupware.scheduling.reply.api"
)

// NATS subjects published by the reply processor.
const (
	// SchedulingNotificationSubject receives one message per tracked event
	// mutation, consumed by the outbound iTIP notification dispatcher.
	SchedulingNotificationSubject = "groupware.scheduling.notification"
)

// SchedulingReplyQueue is the queue group name for reply subscriptions.
const SchedulingReplyQueue = "scheduling-reply-service"
