// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"time"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/utils"
)

// updatePlan is the resulting state of a partial update.
type updatePlan struct {
	status models.MeetingStatus
	start  *time.Time
	end    *time.Time

	statusChanged bool
	startChanged  bool
	endChanged    bool
	datesChanged  bool
}

func (p updatePlan) changed() bool {
	return p.statusChanged || p.datesChanged
}

// planUpdate checks req against the lifecycle of meeting:
//
//	CREATED   -> SCHEDULED | FINISHED | CANCELLED
//	SCHEDULED -> FINISHED | CANCELLED
//	FINISHED, CANCELLED are terminal
//
// Requesting the current status is allowed and changes nothing. Dates of a
// terminal meeting cannot change, and the resulting window must end after
// it starts. The meeting itself is not modified.
func planUpdate(meeting *models.Meeting, req models.UpdateMeetingRequest) (updatePlan, error) {
	plan := updatePlan{
		status: meeting.Status,
		start:  meeting.ScheduledStart,
		end:    meeting.ScheduledEnd,
	}

	if req.Status != nil {
		next := *req.Status
		if !next.IsValid() {
			return plan, domain.NewValidationError(fmt.Sprintf("unknown meeting status %q", next))
		}
		if !meeting.Status.CanTransitionTo(next) {
			return plan, domain.NewInvalidTransitionError(
				fmt.Sprintf("cannot move meeting from %s to %s", meeting.Status, next))
		}
		plan.statusChanged = next != meeting.Status
		plan.status = next
	}

	if req.ScheduledStart != nil && !sameInstant(req.ScheduledStart, meeting.ScheduledStart) {
		plan.start = utils.Ptr(req.ScheduledStart.UTC())
		plan.startChanged = true
	}
	if req.ScheduledEnd != nil && !sameInstant(req.ScheduledEnd, meeting.ScheduledEnd) {
		plan.end = utils.Ptr(req.ScheduledEnd.UTC())
		plan.endChanged = true
	}
	plan.datesChanged = plan.startChanged || plan.endChanged

	if plan.datesChanged && meeting.Status.IsTerminal() {
		return plan, domain.NewInvalidTransitionError(
			fmt.Sprintf("cannot change the schedule of a %s meeting", meeting.Status))
	}
	if err := models.ValidateSchedule(plan.start, plan.end); err != nil {
		return plan, domain.NewInvalidTransitionError(err.Error())
	}

	return plan, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
