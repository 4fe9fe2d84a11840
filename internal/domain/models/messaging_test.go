// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectsShareNamespace(t *testing.T) {
	subjects := []string{
		MeetingCreatedSubject,
		MeetingUpdatedSubject,
		MeetingCancelledSubject,
		RecordingSyncedSubject,
		OrphanedEventSubject,
		RecordingSyncSubject,
		RecordingSyncAllSubject,
	}

	seen := map[string]bool{}
	for _, subject := range subjects {
		assert.True(t, strings.HasPrefix(subject, "lfx.meet."), subject)
		assert.False(t, seen[subject], "duplicate subject %s", subject)
		seen[subject] = true
	}
}

func TestEventMessage_JSON(t *testing.T) {
	msg := EventMessage{
		Action:    ActionOrphaned,
		Data:      OrphanedEvent{ProviderEventID: "evt-1", OrganizerEmail: "doctor@clinica.com", Reason: "insert failed"},
		Timestamp: "2025-12-01T15:00:00Z",
	}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "orphaned", decoded["action"])
	assert.NotContains(t, decoded, "headers")
	data := decoded["data"].(map[string]any)
	assert.Equal(t, "evt-1", data["provider_event_id"])
}
