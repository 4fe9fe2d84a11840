// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/utils"
)

// syncOutcome is what a single recording sync did.
type syncOutcome int

const (
	syncNotFound syncOutcome = iota
	syncUnchanged
	syncCreated
	syncUpdated
)

// RecordingSyncService links provider recordings to meetings.
type RecordingSyncService struct {
	MeetingRepository   domain.MeetingRepository
	RecordingRepository domain.RecordingRepository
	Provider            domain.CalendarProvider
	MessageBuilder      domain.RecordingEventSender
	Config              ServiceConfig

	pool       *concurrent.WorkerPool
	background *concurrent.Background
	metrics    *serviceMetrics
}

// NewRecordingSyncService creates a new RecordingSyncService.
func NewRecordingSyncService(
	meetingRepository domain.MeetingRepository,
	recordingRepository domain.RecordingRepository,
	provider domain.CalendarProvider,
	messageBuilder domain.RecordingEventSender,
	config ServiceConfig,
) *RecordingSyncService {
	config = config.withDefaults()
	return &RecordingSyncService{
		MeetingRepository:   meetingRepository,
		RecordingRepository: recordingRepository,
		Provider:            provider,
		MessageBuilder:      messageBuilder,
		Config:              config,
		pool:                concurrent.NewWorkerPool(config.SyncWorkers),
		background:          concurrent.NewBackground(config.BackgroundTimeout),
		metrics:             newServiceMetrics(),
	}
}

// ServiceReady checks if the service is ready for use.
func (s *RecordingSyncService) ServiceReady() bool {
	return s.MeetingRepository != nil &&
		s.RecordingRepository != nil &&
		s.Provider != nil &&
		s.MessageBuilder != nil
}

// SyncRecording looks up the provider recording of a meeting and stores it.
// It returns (nil, nil) when the provider has no recording yet. Repeated
// calls with unchanged provider data write nothing.
func (s *RecordingSyncService) SyncRecording(ctx context.Context, meetingID uint64) (*models.Recording, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("recording sync service not initialized", domain.ErrServiceUnavailable)
	}

	meeting, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	_, recording, err := s.syncMeeting(ctx, meeting)
	return recording, err
}

func (s *RecordingSyncService) syncMeeting(ctx context.Context, meeting *models.Meeting) (_ syncOutcome, _ *models.Recording, err error) {
	ctx, span := startSpan(ctx, "RecordingSyncService.SyncRecording", attribute.Int64("meeting_id", int64(meeting.ID)))
	defer func() { endSpan(span, err) }()

	ctx = logging.AppendCtx(ctx, slog.Uint64("meeting_id", meeting.ID))

	snapshot, err := s.findRecording(ctx, meeting)
	if err != nil {
		s.metrics.providerError(ctx, "find_recording")
		slog.ErrorContext(ctx, "recording lookup failed", logging.ErrKey, err)
		return syncNotFound, nil, err
	}
	if snapshot == nil {
		slog.DebugContext(ctx, "no recording available yet")
		return syncNotFound, nil, nil
	}
	span.SetAttributes(attribute.String("recording_source", snapshot.Source))

	if snapshot.ConferenceRecordID != "" && snapshot.ConferenceRecordID != meeting.ConferenceRecordID {
		if err := s.MeetingRepository.SetConferenceRecordID(ctx, meeting.ID, snapshot.ConferenceRecordID); err != nil {
			slog.WarnContext(ctx, "failed to store conference record id", logging.ErrKey, err)
		} else {
			meeting.ConferenceRecordID = snapshot.ConferenceRecordID
		}
	}

	stored, err := s.RecordingRepository.GetRecordingByMeeting(ctx, meeting.ID)
	switch {
	case errors.Is(err, domain.ErrRecordingNotFound):
		return s.createRecording(ctx, meeting.ID, *snapshot)
	case err != nil:
		return syncNotFound, nil, err
	}

	if !stored.ApplySnapshot(*snapshot) {
		slog.DebugContext(ctx, "recording already up to date", "recording_id", stored.ID)
		return syncUnchanged, stored, nil
	}

	if err := s.RecordingRepository.UpdateRecording(ctx, stored); err != nil {
		return syncNotFound, nil, err
	}

	s.recordingWritten(ctx, stored, "updated")
	return syncUpdated, stored, nil
}

func (s *RecordingSyncService) createRecording(ctx context.Context, meetingID uint64, snapshot models.RecordingSnapshot) (syncOutcome, *models.Recording, error) {
	recording := &models.Recording{MeetingID: meetingID}
	recording.ApplySnapshot(snapshot)

	err := s.RecordingRepository.CreateRecording(ctx, recording)
	if errors.Is(err, domain.ErrConflict) {
		// a concurrent sync stored it first
		slog.InfoContext(ctx, "recording already synced by another run")
		stored, getErr := s.RecordingRepository.GetRecordingByMeeting(ctx, meetingID)
		if getErr != nil {
			return syncNotFound, nil, getErr
		}
		return syncUnchanged, stored, nil
	}
	if err != nil {
		return syncNotFound, nil, err
	}

	s.recordingWritten(ctx, recording, "created")
	return syncCreated, recording, nil
}

func (s *RecordingSyncService) recordingWritten(ctx context.Context, recording *models.Recording, change string) {
	s.metrics.recordingsSynced.Add(ctx, 1)
	slog.InfoContext(ctx, "recording "+change,
		"recording_id", recording.ID,
		"provider_file_id", utils.Deref(recording.ProviderFileID),
	)
	if err := s.MessageBuilder.SendRecordingSynced(ctx, recording); err != nil {
		slog.ErrorContext(ctx, "failed to publish recording event", logging.ErrKey, err)
	}
}

// findRecording asks the provider for a recording, retrying transient
// provider failures with exponential backoff.
func (s *RecordingSyncService) findRecording(ctx context.Context, meeting *models.Meeting) (*models.RecordingSnapshot, error) {
	query := models.RecordingQuery{
		MeetingID:          meeting.ID,
		ProviderEventID:    meeting.ProviderEventID,
		JoinLink:           meeting.JoinLink,
		ConferenceRecordID: meeting.ConferenceRecordID,
		ScheduledStart:     meeting.ScheduledStart,
		ScheduledEnd:       meeting.ScheduledEnd,
		CreatedAt:          meeting.CreatedAt,
	}

	operation := func() (*models.RecordingSnapshot, error) {
		snapshot, err := s.Provider.FindRecording(ctx, query)
		if err != nil && !domain.IsTransientProviderError(err) {
			return nil, backoff.Permanent(err)
		}
		return snapshot, err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.Config.SyncBackoff
	expBackoff.MaxInterval = 10 * s.Config.SyncBackoff

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(s.Config.SyncMaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "recording lookup failed, retrying", logging.ErrKey, err, "retry_in", next)
		}),
	)
}

// SyncAll syncs every meeting that has a join link and no recording,
// using the worker pool. A failing meeting never stops the others.
func (s *RecordingSyncService) SyncAll(ctx context.Context, limit int) (models.SyncStats, error) {
	var stats models.SyncStats

	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return stats, domain.NewUnavailableError("recording sync service not initialized", domain.ErrServiceUnavailable)
	}
	if limit < 0 {
		return stats, domain.NewValidationError("limit must not be negative")
	}

	meetings, err := s.MeetingRepository.ListSyncCandidates(ctx, models.SyncCandidateFilter{Limit: limit})
	if err != nil {
		return stats, err
	}

	var mu sync.Mutex
	tasks := make([]concurrent.Task, 0, len(meetings))
	for _, meeting := range meetings {
		tasks = append(tasks, func(ctx context.Context) error {
			outcome, _, err := s.syncMeeting(ctx, meeting)

			mu.Lock()
			defer mu.Unlock()
			stats.Processed++
			if err != nil {
				stats.Errors++
				return nil
			}
			switch outcome {
			case syncCreated:
				stats.Found++
				stats.Created++
			case syncUpdated:
				stats.Found++
				stats.Updated++
			case syncUnchanged:
				stats.Found++
			}
			return nil
		})
	}

	results := s.pool.RunAll(ctx, tasks...)

	// only tasks skipped by a cancelled context report an error
	skipped := len(concurrent.Errors(results))
	stats.Processed += skipped
	stats.Errors += skipped

	slog.InfoContext(ctx, "recording sync run finished",
		"candidates", len(meetings),
		"processed", stats.Processed,
		"found", stats.Found,
		"created", stats.Created,
		"updated", stats.Updated,
		"errors", stats.Errors,
	)

	return stats, nil
}

// RequestSync starts a background sync of one meeting and returns at once.
// Meetings without a scheduled start are rejected.
func (s *RecordingSyncService) RequestSync(ctx context.Context, meetingID uint64) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("recording sync service not initialized", domain.ErrServiceUnavailable)
	}

	meeting, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
	if err != nil {
		return err
	}
	if meeting.ScheduledStart == nil {
		return domain.NewValidationError("meeting has no scheduled start, nothing to sync")
	}

	ctx = logging.AppendCtx(ctx, slog.Uint64("meeting_id", meetingID))
	s.background.Go(ctx, "recording_sync", func(ctx context.Context) error {
		_, _, err := s.syncMeeting(ctx, meeting)
		return err
	})

	slog.InfoContext(ctx, "recording sync requested")
	return nil
}

// Wait blocks until background syncs finish or ctx is done.
func (s *RecordingSyncService) Wait(ctx context.Context) error {
	return s.background.Wait(ctx)
}
