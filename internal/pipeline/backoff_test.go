package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		name    string
		current time.Duration
		want    time.Duration
	}{
		{"doubles", initialBackoff, 400 * time.Millisecond},
		{"doubles again", 400 * time.Millisecond, 800 * time.Millisecond},
		{"caps at max", 4 * time.Second, maxBackoff},
		{"stays at max", maxBackoff, maxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextBackoff(tt.current))
		})
	}
}

func TestSleepWithContext_Completes(t *testing.T) {
	assert.True(t, sleepWithContext(context.Background(), time.Millisecond))
}

func TestSleepWithContext_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepWithContext(ctx, time.Second))
}

func TestSleepWithContext_ZeroDuration(t *testing.T) {
	assert.True(t, sleepWithContext(context.Background(), 0))
}
