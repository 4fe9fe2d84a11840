// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/messaging"
)

// createNatsSubscriptions subscribes the recording handler to its subjects.
// Nothing is subscribed without a connection.
func createNatsSubscriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	if natsConn == nil {
		return nil
	}
	if !handler.HandlerReady() {
		slog.WarnContext(ctx, "recording handler not ready, NATS triggers not subscribed")
		return nil
	}

	_, err := messaging.QueueSubscribe(ctx, natsConn, models.MeetMiddlewareQueue, handler,
		models.RecordingSyncSubject,
		models.RecordingSyncAllSubject,
	)
	return err
}

// natsReadiness fails while an existing connection is down.
func natsReadiness(natsConn *nats.Conn) readinessCheck {
	return func(context.Context) error {
		if natsConn == nil || natsConn.IsConnected() {
			return nil
		}
		return domain.NewUnavailableError("NATS is not connected", domain.ErrServiceUnavailable)
	}
}
