package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	opts := OptionsFor(QueueReviewNotifications)
	job := NewJob(QueueReviewNotifications, JobTypeReviewNotification, []byte(`{"reviewId":"r1"}`), opts)

	require.NotEmpty(t, job.ID)
	assert.Equal(t, QueueReviewNotifications, job.Queue)
	assert.Equal(t, JobTypeReviewNotification, job.Type)
	assert.Equal(t, StateWaiting, job.State)
	assert.Equal(t, 0, job.AttemptsMade)
	assert.Equal(t, 3, job.MaxAttempts)
	assert.Equal(t, 2*time.Second, job.BackoffBase)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestNextRetryDelay(t *testing.T) {
	tests := []struct {
		name         string
		attemptsMade int
		base         time.Duration
		want         time.Duration
	}{
		{"first attempt has no delay", 0, 2 * time.Second, 0},
		{"second attempt waits the base delay", 1, 2 * time.Second, 2 * time.Second},
		{"third attempt doubles", 2, 2 * time.Second, 4 * time.Second},
		{"fourth attempt doubles again", 3, 2 * time.Second, 8 * time.Second},
		{"fifth attempt", 4, 1 * time.Second, 8 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &Job{AttemptsMade: tt.attemptsMade, BackoffBase: tt.base}
			assert.Equal(t, tt.want, job.NextRetryDelay())
		})
	}
}

func TestAttemptsExhausted(t *testing.T) {
	job := &Job{MaxAttempts: 3}

	job.AttemptsMade = 2
	assert.False(t, job.AttemptsExhausted())

	job.AttemptsMade = 3
	assert.True(t, job.AttemptsExhausted())
}

func TestQueueCatalogue(t *testing.T) {
	tests := []struct {
		queue         string
		maxAttempts   int
		backoffBase   time.Duration
		keepCompleted int
		keepFailed    int
		concurrency   int
		rateMax       int
	}{
		{QueueReviewNotifications, 3, 2 * time.Second, 50, 100, 5, 10},
		{QueueEmailProcessing, 5, 1 * time.Second, 20, 50, 3, 20},
		{QueueRatingCalculation, 3, 2 * time.Second, 50, 100, 5, 20},
		{QueueVideoThumbnail, 3, 2 * time.Second, 50, 100, 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.queue, func(t *testing.T) {
			opts := OptionsFor(tt.queue)
			assert.Equal(t, tt.maxAttempts, opts.MaxAttempts)
			assert.Equal(t, tt.backoffBase, opts.BackoffBase)
			assert.Equal(t, tt.keepCompleted, opts.KeepCompleted)
			assert.Equal(t, tt.keepFailed, opts.KeepFailed)
			assert.Equal(t, tt.concurrency, opts.Concurrency)
			assert.Equal(t, tt.rateMax, opts.RateLimit.Max)
			assert.Equal(t, time.Second, opts.RateLimit.Window)
		})
	}
}

func TestOptionsForUnknownQueue(t *testing.T) {
	opts := OptionsFor("no-such-queue")
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 1, opts.Concurrency)
}

func TestPermanentError(t *testing.T) {
	base := assert.AnError
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.False(t, IsPermanent(nil))
}
