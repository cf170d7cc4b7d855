package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanPayload struct {
	Analyze bool `json:"analyze"`
}

type recordingJob struct {
	mu       sync.Mutex
	payloads []scanPayload
	failures int32
	calls    atomic.Int32
	done     chan struct{}
}

func newRecordingJob(failures int32) *recordingJob {
	return &recordingJob{failures: failures, done: make(chan struct{}, 8)}
}

func (j *recordingJob) Name() string { return "recording" }
func (j *recordingJob) Type() string { return "scan" }

func (j *recordingJob) Handle(_ context.Context, payload interface{}) error {
	defer func() { j.done <- struct{}{} }()
	n := j.calls.Add(1)
	p, err := ParsePayload[scanPayload](payload)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.payloads = append(j.payloads, *p)
	j.mu.Unlock()
	if n <= j.failures {
		return errors.New("upstream down")
	}
	return nil
}

func waitDone(t *testing.T, j *recordingJob, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-j.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("job ran %d times, want %d", i, n)
		}
	}
}

func newTestQueue(retries int) *MemoryQueue {
	q := NewMemoryQueue(nil, &QueueConfig{Workers: 1, RetryLimit: retries, RetryDelay: time.Millisecond})
	q.after = func(_ time.Duration, fn func()) { go fn() }
	return q
}

func TestMemoryQueue_RunsJob(t *testing.T) {
	q := newTestQueue(0)
	job := newRecordingJob(0)
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	id, err := q.Enqueue(context.Background(), "scan", scanPayload{Analyze: true})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	waitDone(t, job, 1)
	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Equal(t, []scanPayload{{Analyze: true}}, job.payloads)
}

func TestMemoryQueue_RetriesThenDeadLetters(t *testing.T) {
	q := newTestQueue(2)
	job := newRecordingJob(10)
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	_, err := q.Enqueue(context.Background(), "scan", scanPayload{})
	require.NoError(t, err)

	waitDone(t, job, 3)
	require.Eventually(t, func() bool { return len(q.DeadLetters()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, q.DeadLetters()[0].Attempts)
	assert.EqualValues(t, 3, job.calls.Load())
}

func TestMemoryQueue_RecoversOnRetry(t *testing.T) {
	q := newTestQueue(3)
	job := newRecordingJob(1)
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	_, err := q.Enqueue(context.Background(), "scan", scanPayload{})
	require.NoError(t, err)

	waitDone(t, job, 2)
	assert.Empty(t, q.DeadLetters())
}

func TestMemoryQueue_EnqueueErrors(t *testing.T) {
	q := newTestQueue(0)
	q.RegisterJob(newRecordingJob(0))

	_, err := q.Enqueue(context.Background(), "scan", nil)
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, q.Start())
	defer q.Stop(context.Background())
	assert.ErrorIs(t, q.Start(), ErrAlreadyStart)

	_, err = q.Enqueue(context.Background(), "other", nil)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[scanPayload](scanPayload{Analyze: true})
	require.NoError(t, err)
	assert.True(t, p.Analyze)

	p, err = ParsePayload[scanPayload](normalizePayload(map[string]interface{}{"analyze": true}))
	require.NoError(t, err)
	assert.True(t, p.Analyze)

	_, err = ParsePayload[scanPayload](42)
	assert.Error(t, err)
}
