// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
)

// INatsConn is a NATS connection interface needed for the [MessageBuilder].
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
// A builder without connection publishes nothing.
type MessageBuilder struct {
	NatsConn INatsConn
	now      func() time.Time
}

// Ensure MessageBuilder implements the domain MessageBuilder
var _ domain.MessageBuilder = (*MessageBuilder)(nil)

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
		now:      time.Now,
	}
}

// sendMessage sends the message to the NATS server.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, data []byte) error {
	if m.NatsConn == nil {
		slog.DebugContext(ctx, "NATS disabled, message dropped", "subject", subject)
		return nil
	}
	if !m.NatsConn.IsConnected() {
		slog.WarnContext(ctx, "NATS not connected, message dropped", "subject", subject)
		return domain.NewUnavailableError("NATS is not connected", domain.ErrServiceUnavailable)
	}

	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// sendEventMessage wraps data into an EventMessage carrying the caller's
// identity headers and publishes it.
func (m *MessageBuilder) sendEventMessage(ctx context.Context, subject string, action models.MessageAction, data any) error {
	headers := make(map[string]string)
	if authorization, ok := ctx.Value(constants.AuthorizationContextID).(string); ok && authorization != "" {
		headers[constants.AuthorizationHeader] = authorization
	}
	if principal, ok := ctx.Value(constants.PrincipalContextID).(string); ok && principal != "" {
		headers[constants.XOnBehalfOfHeader] = principal
	}
	if requestID, ok := ctx.Value(constants.RequestIDContextID).(string); ok && requestID != "" {
		headers[constants.RequestIDHeader] = requestID
	}

	payload, err := toPayload(data)
	if err != nil {
		slog.ErrorContext(ctx, "error building message payload", logging.ErrKey, err, "subject", subject)
		return err
	}

	now := time.Now
	if m.now != nil {
		now = m.now
	}
	message := models.EventMessage{
		Action:    action,
		Headers:   headers,
		Data:      payload,
		Timestamp: now().UTC().Format(time.RFC3339),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}

	slog.DebugContext(ctx, "constructed event message", "subject", subject, "action", action)
	return m.sendMessage(ctx, subject, messageBytes)
}

// toPayload turns data into the generic JSON object consumers decode.
func toPayload(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data into JSON: %w", err)
	}
	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err != nil {
		return nil, fmt.Errorf("error unmarshalling data into JSON: %w", err)
	}

	var payload map[string]any
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating decoder: %w", err)
	}
	if err := decoder.Decode(jsonData); err != nil {
		return nil, fmt.Errorf("error decoding data: %w", err)
	}
	return payload, nil
}

// meetingSubject maps a lifecycle action to its subject.
func meetingSubject(action models.MessageAction) (string, error) {
	switch action {
	case models.ActionCreated:
		return models.MeetingCreatedSubject, nil
	case models.ActionUpdated:
		return models.MeetingUpdatedSubject, nil
	case models.ActionCancelled:
		return models.MeetingCancelledSubject, nil
	}
	return "", fmt.Errorf("no meeting subject for action %q", action)
}

// SendMeetingEvent publishes a meeting lifecycle event.
func (m *MessageBuilder) SendMeetingEvent(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error {
	subject, err := meetingSubject(action)
	if err != nil {
		return err
	}
	return m.sendEventMessage(ctx, subject, action, meeting)
}

// SendOrphanedEvent publishes a provider event that has no local meeting.
func (m *MessageBuilder) SendOrphanedEvent(ctx context.Context, event models.OrphanedEvent) error {
	return m.sendEventMessage(ctx, models.OrphanedEventSubject, models.ActionOrphaned, event)
}

// SendRecordingSynced publishes a created or changed recording.
func (m *MessageBuilder) SendRecordingSynced(ctx context.Context, recording *models.Recording) error {
	return m.sendEventMessage(ctx, models.RecordingSyncedSubject, models.ActionSynced, recording)
}
