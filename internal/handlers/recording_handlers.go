// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/service"
)

// RecordingHandler handles recording sync requests received over NATS.
type RecordingHandler struct {
	recordingSyncService *service.RecordingSyncService
}

var _ domain.MessageHandler = (*RecordingHandler)(nil)

func NewRecordingHandler(recordingSyncService *service.RecordingSyncService) *RecordingHandler {
	return &RecordingHandler{
		recordingSyncService: recordingSyncService,
	}
}

func (h *RecordingHandler) HandlerReady() bool {
	return h.recordingSyncService != nil && h.recordingSyncService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (h *RecordingHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.RecordingSyncSubject:    h.HandleRecordingSync,
		models.RecordingSyncAllSubject: h.HandleRecordingSyncAll,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		respond(ctx, msg, nil)
		return
	}

	response, err := handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		respond(ctx, msg, nil)
		return
	}

	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}
	respond(ctx, msg, response)
}

func respond(ctx context.Context, msg domain.Message, data []byte) {
	if !msg.HasReply() {
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "responded to NATS message", "response_bytes", len(data))
}

// HandleRecordingSync syncs the recording of the meeting whose id is the
// message payload. The reply is the recording, or empty when the provider
// has none yet.
func (h *RecordingHandler) HandleRecordingSync(ctx context.Context, msg domain.Message) ([]byte, error) {
	if !h.HandlerReady() {
		return nil, fmt.Errorf("recording sync service not initialized")
	}

	raw := strings.TrimSpace(string(msg.Data()))
	meetingID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || meetingID == 0 {
		slog.WarnContext(ctx, "invalid meeting id in sync request", "payload", raw)
		return nil, domain.NewValidationError(fmt.Sprintf("invalid meeting id %q", raw))
	}
	ctx = logging.AppendCtx(ctx, slog.Uint64("meeting_id", meetingID))

	recording, err := h.recordingSyncService.SyncRecording(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if recording == nil {
		return []byte{}, nil
	}

	return json.Marshal(recording)
}

// HandleRecordingSyncAll runs a sync of every candidate meeting. The payload
// is an optional JSON object carrying a limit; the reply is the run's stats.
func (h *RecordingHandler) HandleRecordingSyncAll(ctx context.Context, msg domain.Message) ([]byte, error) {
	if !h.HandlerReady() {
		return nil, fmt.Errorf("recording sync service not initialized")
	}

	var req models.SyncAllRequest
	if data := msg.Data(); len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, domain.NewValidationError("invalid sync-all payload", err)
		}
	}

	stats, err := h.recordingSyncService.SyncAll(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	return json.Marshal(stats)
}
