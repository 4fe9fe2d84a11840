// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google/api"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

// Sources reported in RecordingSnapshot.Source.
const (
	SourceConferenceRecord = "conference_record"
	SourceDriveMeetingCode = "drive_meeting_code"
	SourceDriveEventID     = "drive_event_id"
	SourceDriveTimeWindow  = "drive_time_window"
)

const (
	recordingMimeType     = "video/mp4"
	driveSearchPageSize   = 5
	driveWindowPageSize   = 20
	minMeetingCodeLength  = 6
	windowLeadBefore      = 5 * time.Minute
	windowTrailAfter      = 15 * time.Minute
	windowDefaultLength   = 2 * time.Hour
	createdWindowBefore   = time.Hour
	createdWindowAfter    = 2 * time.Hour
	conferenceRecordsPath = "conferenceRecords/"
)

// FindRecording looks the recording up with progressively weaker strategies:
// Meet conference records, then Drive by meeting code, by event id and
// finally by time window. Conference record failures fall through to Drive;
// Drive failures are returned.
func (p *Provider) FindRecording(ctx context.Context, query models.RecordingQuery) (*models.RecordingSnapshot, error) {
	ctx = logging.AppendCtx(ctx, slog.String("google_operation", "find_recording"))
	ctx = logging.AppendCtx(ctx, slog.Uint64("meeting_id", query.MeetingID))

	code := models.MeetingCodeFromLink(query.JoinLink)

	snapshot, err := p.findInConferenceRecords(ctx, query.ConferenceRecordID, code)
	if err != nil {
		slog.WarnContext(ctx, "conference record lookup failed, falling back to Drive", logging.ErrKey, err)
	} else if snapshot != nil {
		return snapshot, nil
	}

	if len(code) >= minMeetingCodeLength {
		files, err := p.searchDrive(ctx, fmt.Sprintf("name contains '%s'", api.EscapeQueryValue(code)), driveSearchPageSize)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			slog.InfoContext(ctx, "recording found by meeting code", "meeting_code", code)
			return driveSnapshot(files[0], SourceDriveMeetingCode), nil
		}
	}

	if query.ProviderEventID != "" {
		files, err := p.searchDrive(ctx, fmt.Sprintf("name contains '%s'", api.EscapeQueryValue(query.ProviderEventID)), driveSearchPageSize)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			slog.InfoContext(ctx, "recording found by event id")
			return driveSnapshot(files[0], SourceDriveEventID), nil
		}
	}

	from, to, ok := p.searchWindow(query)
	if !ok {
		slog.DebugContext(ctx, "no time window available for recording search")
		return nil, nil
	}
	files, err := p.searchDrive(ctx, fmt.Sprintf("createdTime >= '%s' and createdTime <= '%s'",
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)), driveWindowPageSize)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		slog.DebugContext(ctx, "no recording in time window", "from", from, "to", to)
		return nil, nil
	}

	best := p.pickCandidate(ctx, files, code, query.ProviderEventID)
	return driveSnapshot(best, SourceDriveTimeWindow), nil
}

// findInConferenceRecords returns the first generated recording of the
// meeting's conference records.
func (p *Provider) findInConferenceRecords(ctx context.Context, conferenceRecordID, code string) (*models.RecordingSnapshot, error) {
	var names []string
	switch {
	case conferenceRecordID != "":
		names = []string{conferenceRecordID}
	case code != "":
		records, err := p.client.ListConferenceRecords(ctx, api.MeetingCodeFilter(code))
		if err != nil {
			return nil, mapError("list conference records", err)
		}
		for _, r := range records {
			names = append(names, r.Name)
		}
	default:
		return nil, nil
	}

	for _, name := range names {
		recordings, err := p.client.ListConferenceRecordings(ctx, name)
		if err != nil {
			return nil, mapError("list conference recordings", err)
		}

		var best *api.ConferenceRecording
		for i := range recordings {
			rec := &recordings[i]
			if rec.State != api.RecordingStateFileGenerated || rec.DriveDestination == nil || rec.DriveDestination.File == "" {
				continue
			}
			if best == nil || rec.EndTime > best.EndTime {
				best = rec
			}
		}
		if best == nil {
			continue
		}

		slog.InfoContext(ctx, "recording found in conference record", "conference_record", name)
		return conferenceSnapshot(name, best), nil
	}
	return nil, nil
}

func conferenceSnapshot(recordName string, rec *api.ConferenceRecording) *models.RecordingSnapshot {
	start := parseTime(rec.StartTime)
	end := parseTime(rec.EndTime)

	s := &models.RecordingSnapshot{
		FileID:             rec.DriveDestination.File,
		FileURL:            rec.DriveDestination.ExportURI,
		State:              models.RecordingState(rec.State),
		StartTime:          start,
		EndTime:            end,
		AvailableAt:        end,
		ConferenceRecordID: strings.TrimPrefix(recordName, conferenceRecordsPath),
		Source:             SourceConferenceRecord,
	}
	if start != nil && end != nil && end.After(*start) {
		d := int64(end.Sub(*start) / time.Second)
		s.DurationSeconds = &d
	}
	return s
}

func (p *Provider) searchDrive(ctx context.Context, clause string, pageSize int) ([]api.DriveFile, error) {
	q := clause + " and mimeType='" + recordingMimeType + "' and trashed=false"
	files, err := p.client.ListDriveFiles(ctx, q, pageSize)
	if err != nil {
		return nil, mapError("search drive recordings", err)
	}
	return files, nil
}

// searchWindow picks the created-time window the recording file should
// fall in.
func (p *Provider) searchWindow(query models.RecordingQuery) (time.Time, time.Time, bool) {
	if query.ScheduledStart != nil && !query.ScheduledStart.After(p.now()) {
		from := query.ScheduledStart.Add(-windowLeadBefore)
		to := query.ScheduledStart.Add(windowDefaultLength)
		if query.ScheduledEnd != nil {
			to = query.ScheduledEnd.Add(windowTrailAfter)
		}
		return from, to, true
	}
	if !query.CreatedAt.IsZero() {
		return query.CreatedAt.Add(-createdWindowBefore), query.CreatedAt.Add(createdWindowAfter), true
	}
	return time.Time{}, time.Time{}, false
}

// pickCandidate chooses among several recordings: one named after the
// meeting code, else the best title word overlap, else the newest.
func (p *Provider) pickCandidate(ctx context.Context, files []api.DriveFile, code, providerEventID string) api.DriveFile {
	if len(files) == 1 {
		return files[0]
	}

	if code != "" {
		for _, f := range files {
			if strings.Contains(f.Name, code) {
				return f
			}
		}
	}

	if providerEventID != "" {
		event, err := p.client.GetEvent(ctx, providerEventID)
		if err != nil {
			slog.DebugContext(ctx, "could not load event title for recording match", logging.ErrKey, err)
		} else if idx := bestTitleMatch(files, event.Summary); idx >= 0 {
			return files[idx]
		}
	}

	// files are ordered newest first
	return files[0]
}

// bestTitleMatch returns the index of the file sharing the most words with
// title, or -1 when none shares any.
func bestTitleMatch(files []api.DriveFile, title string) int {
	titleWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title)) {
		titleWords[w] = struct{}{}
	}
	if len(titleWords) == 0 {
		return -1
	}

	best, bestScore := -1, 0
	for i, f := range files {
		seen := make(map[string]struct{})
		score := 0
		for _, w := range strings.Fields(strings.ToLower(f.Name)) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			if _, ok := titleWords[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func driveSnapshot(f api.DriveFile, source string) *models.RecordingSnapshot {
	s := &models.RecordingSnapshot{
		FileID:      f.ID,
		FileURL:     f.WebViewLink,
		AvailableAt: parseTime(f.CreatedTime),
		State:       models.RecordingStateFileGenerated,
		Source:      source,
	}
	if seconds, ok := f.DurationSeconds(); ok {
		s.DurationSeconds = &seconds
	}
	return s
}
