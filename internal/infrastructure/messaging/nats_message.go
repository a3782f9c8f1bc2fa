// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
)

// NatsMessage adapts a NATS message to the domain Message interface.
type NatsMessage struct {
	msg *nats.Msg
}

// NewNatsMessage wraps a NATS message for the domain handlers.
func NewNatsMessage(msg *nats.Msg) *NatsMessage {
	return &NatsMessage{msg: msg}
}

func (m *NatsMessage) Subject() string {
	return m.msg.Subject
}

func (m *NatsMessage) Data() []byte {
	return m.msg.Data
}

func (m *NatsMessage) Respond(data []byte) error {
	return m.msg.Respond(data)
}

func (m *NatsMessage) HasReply() bool {
	return m.msg.Reply != ""
}

// Compile-time interface check
var _ domain.Message = (*NatsMessage)(nil)
