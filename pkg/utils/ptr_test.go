// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPtr(t *testing.T) {
	s := Ptr("meet")
	require.NotNil(t, s)
	assert.Equal(t, "meet", *s)

	n := Ptr(uint64(7))
	assert.Equal(t, uint64(7), *n)
}

func TestPtr_Independence(t *testing.T) {
	v := 1
	p := Ptr(v)
	v = 2
	assert.Equal(t, 1, *p)

	q := Ptr(*p)
	*q = 5
	assert.Equal(t, 1, *p)
}

func TestDeref(t *testing.T) {
	now := time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, "x", Deref(Ptr("x")))
	assert.Equal(t, "", Deref[string](nil))
	assert.Equal(t, 0, Deref[int](nil))
	assert.False(t, Deref[bool](nil))
	assert.True(t, Deref[time.Time](nil).IsZero())
	assert.True(t, now.Equal(Deref(&now)))
}
