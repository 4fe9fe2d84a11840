// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{name: "first non-empty", values: []string{"", "primary", "other"}, expected: "primary"},
		{name: "all empty", values: []string{"", ""}, expected: ""},
		{name: "no values", expected: ""},
		{name: "first wins", values: []string{"a", "b"}, expected: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Coalesce(tt.values...))
		})
	}
}

func TestCoalesce_Durations(t *testing.T) {
	assert.Equal(t, 30*time.Second, Coalesce(0, 30*time.Second, time.Minute))
	assert.Equal(t, 3, Coalesce(0, 3))
}
