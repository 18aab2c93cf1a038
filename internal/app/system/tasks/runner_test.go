package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunner_RunsImmediatelyAndOnInterval(t *testing.T) {
	var runs atomic.Int32
	r := NewRunner(zap.NewNop(), Job{
		Name:     "count",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	r.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	r.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job ran after Stop")
	}
}

func TestRunner_ErrorsAndPanicsDoNotStopLoop(t *testing.T) {
	var runs atomic.Int32
	r := NewRunner(zap.NewNop(), Job{
		Name:     "flaky",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			n := runs.Add(1)
			if n == 1 {
				panic("boom")
			}
			return errors.New("transient")
		},
	})
	r.Start(context.Background())
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("loop stopped after %d runs", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunner_StopWithoutStart(t *testing.T) {
	r := NewRunner(zap.NewNop())
	r.Stop()
}
