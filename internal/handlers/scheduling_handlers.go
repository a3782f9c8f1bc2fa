// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

// Package handlers contains the NATS message handlers of the service.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/groupware-project/scheduling-reply-service/internal/domain"
	"github.com/groupware-project/scheduling-reply-service/internal/domain/models"
	"github.com/groupware-project/scheduling-reply-service/internal/infrastructure/itip"
	"github.com/groupware-project/scheduling-reply-service/internal/logging"
	"github.com/groupware-project/scheduling-reply-service/internal/service"
	"github.com/groupware-project/scheduling-reply-service/pkg/constants"
)

// ReplyProcessingResponse is the reply payload returned on request-reply
// subjects once a scheduling reply has been processed.
type ReplyProcessingResponse struct {
	Success   bool   `json:"success"`
	Mutations int    `json:"mutations"`
	Error     string `json:"error,omitempty"`
}

// SchedulingHandler handles inbound scheduling reply messages.
type SchedulingHandler struct {
	reconciliationService *service.ReconciliationService
	replyParser           *itip.ReplyParser
	notificationSender    domain.ReconciliationNotificationSender
}

// NewSchedulingHandler creates a new SchedulingHandler.
func NewSchedulingHandler(
	reconciliationService *service.ReconciliationService,
	replyParser *itip.ReplyParser,
	notificationSender domain.ReconciliationNotificationSender,
) *SchedulingHandler {
	return &SchedulingHandler{
		reconciliationService: reconciliationService,
		replyParser:           replyParser,
		notificationSender:    notificationSender,
	}
}

func (h *SchedulingHandler) HandlerReady() bool {
	return h.reconciliationService != nil &&
		h.reconciliationService.ServiceReady() &&
		h.replyParser != nil &&
		h.notificationSender != nil
}

// HandleMessage implements domain.MessageHandler interface
func (h *SchedulingHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	sources := map[string]models.SchedulingSource{
		constants.SchedulingReplyMessageSubject: models.SourceMessage,
		constants.SchedulingReplyAPISubject:     models.SourceAPI,
	}

	source, ok := sources[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		if msg.HasReply() {
			if err := msg.Respond(nil); err != nil {
				slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
			}
		}
		return
	}

	response, err := h.handleReply(ctx, msg, source)
	if err != nil {
		slog.ErrorContext(ctx, "error handling scheduling reply", logging.ErrKey, err)
		response = marshalResponse(ctx, ReplyProcessingResponse{Error: err.Error()})
	}

	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}
	if err := msg.Respond(response); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "responded to NATS message")
}

// handleReply decodes one reply envelope, parses its iCalendar payload,
// reconciles it against storage and fans out the resulting notifications.
func (h *SchedulingHandler) handleReply(ctx context.Context, msg domain.Message, source models.SchedulingSource) ([]byte, error) {
	if !h.HandlerReady() {
		slog.ErrorContext(ctx, "handler dependencies not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("scheduling handler is not ready")
	}

	var envelope models.ReplyEnvelope
	if err := json.Unmarshal(msg.Data(), &envelope); err != nil {
		return nil, domain.NewValidationError("failed to decode reply envelope", err)
	}
	if envelope.Originator == "" {
		return nil, domain.NewValidationError("reply envelope carries no originator")
	}
	if envelope.TargetUser <= 0 {
		return nil, domain.NewValidationError("reply envelope carries no target user")
	}
	if envelope.CalendarData == "" {
		return nil, domain.NewValidationError("reply envelope carries no calendar data")
	}

	ctx = logging.AppendCtx(ctx, slog.String("originator", envelope.Originator))
	ctx = logging.AppendCtx(ctx, slog.Int("target_user", envelope.TargetUser))

	parsed, err := h.replyParser.Parse(ctx, strings.NewReader(envelope.CalendarData))
	if err != nil {
		return nil, err
	}

	incoming := &models.IncomingSchedulingMessage{
		Method:     parsed.Method,
		Source:     source,
		Originator: originatorAttendee(envelope),
		TargetUser: envelope.TargetUser,
		Resource:   parsed.Resource,
		ReceivedAt: time.Now().UTC(),
	}

	result, err := h.reconciliationService.ProcessReply(ctx, incoming)
	if err != nil {
		return nil, err
	}

	if err := h.notificationSender.SendReconciliationResult(ctx, result); err != nil {
		return nil, err
	}

	return marshalResponse(ctx, ReplyProcessingResponse{
		Success:   true,
		Mutations: len(result.Mutations()),
	}), nil
}

// originatorAttendee shapes the envelope's originator address into the
// calendar user the attendee matcher works with. A bare address is treated
// as a mailto URI.
func originatorAttendee(envelope models.ReplyEnvelope) models.Attendee {
	attendee := models.Attendee{
		URI:    envelope.Originator,
		SentBy: envelope.SentBy,
	}
	if !strings.Contains(envelope.Originator, ":") {
		attendee.URI = "mailto:" + envelope.Originator
	}
	if addr, ok := strings.CutPrefix(strings.ToLower(attendee.URI), "mailto:"); ok {
		attendee.Email = addr
	}
	return attendee
}

func marshalResponse(ctx context.Context, response ReplyProcessingResponse) []byte {
	data, err := json.Marshal(response)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling handler response", logging.ErrKey, err)
		return nil
	}
	return data
}

// Compile-time interface check
var _ domain.MessageHandler = (*SchedulingHandler)(nil)
