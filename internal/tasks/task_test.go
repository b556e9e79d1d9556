package tasks

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	task := NewTask("/photos", 3)
	if got := task.Snapshot().Status; got != StatusRunning {
		t.Fatalf("new task status = %s, want running", got)
	}

	task.Pause()
	if got := task.Snapshot().Status; got != StatusPaused {
		t.Errorf("status after pause = %s, want paused", got)
	}

	task.Resume()
	if got := task.Snapshot().Status; got != StatusRunning {
		t.Errorf("status after resume = %s, want running", got)
	}

	task.Stop()
	if got := task.Snapshot().Status; got != StatusStopped {
		t.Errorf("status after stop = %s, want stopped", got)
	}

	// Terminal: no transition out of stopped.
	task.Resume()
	task.Pause()
	task.MarkCompleted()
	if got := task.Snapshot().Status; got != StatusStopped {
		t.Errorf("stopped task transitioned to %s", got)
	}
}

func TestMarkCompletedRequiresAllProcessed(t *testing.T) {
	t.Parallel()

	task := NewTask("/photos", 2)
	task.RecordProcessed()

	task.MarkCompleted()
	if got := task.Snapshot().Status; got != StatusRunning {
		t.Errorf("completed with %d/2 processed, status = %s", 1, got)
	}

	task.RecordProcessed()
	task.MarkCompleted()
	if got := task.Snapshot().Status; got != StatusCompleted {
		t.Errorf("status = %s, want completed", got)
	}
}

func TestMarkCompletedNotFromPaused(t *testing.T) {
	t.Parallel()

	task := NewTask("/photos", 0)
	task.Pause()
	task.MarkCompleted()
	if got := task.Snapshot().Status; got != StatusPaused {
		t.Errorf("paused task completed: status = %s", got)
	}
}

func TestWaitIfPausedBlocksUntilResume(t *testing.T) {
	t.Parallel()

	task := NewTask("/photos", 1)
	task.Pause()

	released := make(chan error, 1)
	go func() {
		released <- task.WaitIfPaused()
	}()

	select {
	case err := <-released:
		t.Fatalf("WaitIfPaused returned %v while paused", err)
	case <-time.After(50 * time.Millisecond):
	}

	task.Resume()
	select {
	case err := <-released:
		if err != nil {
			t.Errorf("WaitIfPaused after resume = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after resume")
	}
}

func TestWaitIfPausedReturnsStopError(t *testing.T) {
	t.Parallel()

	task := NewTask("/photos", 1)
	task.Pause()

	released := make(chan error, 1)
	go func() {
		released <- task.WaitIfPaused()
	}()

	task.Stop()
	select {
	case err := <-released:
		if !errors.Is(err, ErrTaskStopped) {
			t.Errorf("err = %v, want ErrTaskStopped", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after stop")
	}

	// Subsequent checkpoints fail immediately.
	if err := task.WaitIfPaused(); !errors.Is(err, ErrTaskStopped) {
		t.Errorf("checkpoint on stopped task = %v, want ErrTaskStopped", err)
	}
}

func TestCountersUnderConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 8
	const perWorker = 250

	task := NewTask("/photos", workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				task.RecordProcessed()
				if j%2 == 0 {
					task.RecordOptimized()
				} else {
					task.RecordFailed()
				}
			}
		}()
	}
	wg.Wait()

	snap := task.Snapshot()
	if snap.Processed != workers*perWorker {
		t.Errorf("processed = %d, want %d", snap.Processed, workers*perWorker)
	}
	if snap.Optimized+snap.Failed != workers*perWorker {
		t.Errorf("optimized+failed = %d, want %d", snap.Optimized+snap.Failed, workers*perWorker)
	}

	task.MarkCompleted()
	if got := task.Snapshot().Status; got != StatusCompleted {
		t.Errorf("status = %s, want completed", got)
	}
}

func TestRegistryCreateReplaces(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	old := r.Create("/photos", 10)
	replacement := r.Create("/photos", 5)

	if old == replacement {
		t.Fatal("Create did not replace the task")
	}
	if got := old.Snapshot().Status; got != StatusStopped {
		t.Errorf("replaced task status = %s, want stopped", got)
	}

	got, err := r.Get("/photos")
	if err != nil {
		t.Fatal(err)
	}
	if got != replacement {
		t.Error("registry does not hold the replacement task")
	}
}

func TestRegistryNotFound(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if _, err := r.Get("/nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get err = %v, want ErrTaskNotFound", err)
	}
	if err := r.Pause("/nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Pause err = %v, want ErrTaskNotFound", err)
	}
	if err := r.Resume("/nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Resume err = %v, want ErrTaskNotFound", err)
	}
	if err := r.Stop("/nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Stop err = %v, want ErrTaskNotFound", err)
	}
}

func TestRegistryHasRunningTask(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if r.HasRunningTask("/photos") {
		t.Error("empty registry reports a running task")
	}

	task := r.Create("/photos", 1)
	if !r.HasRunningTask("/photos") {
		t.Error("running task not reported")
	}
	if r.HasRunningTask("/videos") {
		t.Error("task reported for a different folder")
	}

	task.Pause()
	if !r.HasRunningTask("/photos") {
		t.Error("paused task should count as active")
	}

	task.Stop()
	if r.HasRunningTask("/photos") {
		t.Error("stopped task reported as active")
	}
}

func TestRegistryAnyActive(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if r.AnyActive() {
		t.Error("empty registry reports activity")
	}

	done := r.Create("/done", 1)
	done.RecordProcessed()
	done.MarkCompleted()
	if r.AnyActive() {
		t.Error("completed task reported as active")
	}

	r.Create("/photos", 1)
	if !r.AnyActive() {
		t.Error("running task not reported")
	}
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Create("/photos", 1)
	r.Remove("/photos")
	if _, err := r.Get("/photos"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("task survives Remove: %v", err)
	}
	// Removing twice is a no-op.
	r.Remove("/photos")

	if got := len(r.All()); got != 0 {
		t.Errorf("All() = %d entries, want 0", got)
	}
}
