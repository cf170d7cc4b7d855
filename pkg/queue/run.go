package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"EarnScan/pkg/logger"
)

// runJob calls job.Handle and logs the outcome.
func runJob(ctx context.Context, job Job, msg Message, l *logger.Logger) error {
	start := time.Now()
	err := job.Handle(ctx, normalizePayload(msg.Payload))
	fields := []logger.Field{
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.Error("message processing error", append(fields, logger.Error(err))...)
		return err
	}
	l.Info("message processed", fields...)
	return nil
}

// normalizePayload turns JSON-decoded maps into json.RawMessage for ParsePayload.
func normalizePayload(payload interface{}) interface{} {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return payload
	}
	b, err := json.Marshal(m)
	if err != nil {
		return payload
	}
	return json.RawMessage(b)
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup, l *logger.Logger) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		l.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		l.Info("queue stopped")
		return nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
