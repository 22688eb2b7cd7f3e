package async

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunParallel_Success(t *testing.T) {
	var count atomic.Int32

	task := func(_ context.Context) error {
		count.Add(1)
		return nil
	}
	tasks := []Task{
		{Name: "web1", Func: task},
		{Name: "web2", Func: task},
		{Name: "db1", Func: task},
	}

	if err := RunParallel(context.Background(), tasks); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if count.Load() != 3 {
		t.Errorf("expected 3 tasks to run, got %d", count.Load())
	}
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	if err := RunParallel(context.Background(), nil); err != nil {
		t.Errorf("expected no error for empty tasks, got: %v", err)
	}
}

func TestRunParallel_CollectsEveryFailure(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	tasks := []Task{
		{Name: "a", Func: func(_ context.Context) error { return errA }},
		{Name: "b", Func: func(_ context.Context) error { return errB }},
		{Name: "c", Func: func(_ context.Context) error { return nil }},
	}

	err := RunParallel(context.Background(), tasks)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both failures to be joined, got: %v", err)
	}
	if !strings.Contains(err.Error(), "a: a failed") {
		t.Errorf("expected task name prefix, got: %v", err)
	}
}

func TestRunParallel_RunsConcurrently(t *testing.T) {
	start := time.Now()
	sleep := func(_ context.Context) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	}

	tasks := []Task{{Name: "1", Func: sleep}, {Name: "2", Func: sleep}, {Name: "3", Func: sleep}}
	if err := RunParallel(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 140*time.Millisecond {
		t.Errorf("tasks did not run in parallel, took %v", elapsed)
	}
}
