// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv_ProviderMaxRetries(t *testing.T) {
	tests := []struct {
		name          string
		value         string
		expectedEnv   int
		expectedRetry int
	}{
		{name: "unset uses the default", value: "", expectedEnv: 3, expectedRetry: 3},
		{name: "zero disables client retries", value: "0", expectedEnv: 0, expectedRetry: -1},
		{name: "explicit count", value: "5", expectedEnv: 5, expectedRetry: 5},
		{name: "invalid falls back to the default", value: "many", expectedEnv: 3, expectedRetry: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PROVIDER_MAX_RETRIES", tt.value)

			env := parseEnv()
			assert.Equal(t, tt.expectedEnv, env.Google.MaxRetries)
			assert.Equal(t, tt.expectedRetry, env.Google.clientMaxRetries())
		})
	}
}

func TestEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{name: "unset", value: "", expected: time.Minute},
		{name: "plain seconds", value: "90", expected: 90 * time.Second},
		{name: "go duration", value: "250ms", expected: 250 * time.Millisecond},
		{name: "negative", value: "-5s", expected: time.Minute},
		{name: "garbage", value: "soon", expected: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RECORDING_SYNC_BACKOFF", tt.value)
			assert.Equal(t, tt.expected, envDuration("RECORDING_SYNC_BACKOFF", time.Minute))
		})
	}
}
