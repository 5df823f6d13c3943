package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusQueued, StatusRunning, StatusSuccess, StatusFailed} {
		assert.True(t, s.Valid(), "状态 %q 应该合法", s)
	}
	assert.False(t, Status("processing").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusSuccess.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusQueued, StatusRunning, true},
		{StatusRunning, StatusSuccess, true},
		{StatusRunning, StatusFailed, true},

		// 跳级与倒退全部禁止
		{StatusQueued, StatusSuccess, false},
		{StatusQueued, StatusFailed, false},
		{StatusRunning, StatusQueued, false},
		{StatusSuccess, StatusFailed, false},
		{StatusSuccess, StatusRunning, false},
		{StatusFailed, StatusSuccess, false},
		{StatusFailed, StatusRunning, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s → %s", tt.from, tt.to)
	}
}
