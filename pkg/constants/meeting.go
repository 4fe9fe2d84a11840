// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

// Meeting title generation
const (
	// MeetingTitlePrefix precedes the formatted start time in generated titles
	MeetingTitlePrefix = "Meeting - "

	// MeetingTitleLayout formats the start time in generated titles (day/month/year)
	MeetingTitleLayout = "02/01/2006 15:04"

	// DefaultMeetingTitle is used when no start time is given
	DefaultMeetingTitle = "Video meeting"
)

// Recording sync defaults
const (
	DefaultSyncWorkers       = 4
	DefaultSyncMaxTries      = 3
	DefaultSyncBackoff       = 60 * time.Second
	DefaultBackgroundTimeout = 10 * time.Minute
)
