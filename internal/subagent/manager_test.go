package subagent

import (
	"context"
	"testing"
)

func TestManager_SpawnThenCancelReachesCanceled(t *testing.T) {
	launcher := &fakeLauncher{}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent"})

	result, err := mgr.SpawnFromRequest(context.Background(), "do something", RequestOptions{})
	if err != nil {
		t.Fatalf("SpawnFromRequest() error = %v", err)
	}
	if result.Status != StatusRunning {
		t.Fatalf("Status = %v, want %v", result.Status, StatusRunning)
	}

	ok, err := mgr.Cancel(result.JobID, false)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !ok {
		t.Fatal("Cancel() returned false for a running job")
	}

	if _, err := mgr.WaitForExit(result.JobID, 1000); err != nil {
		t.Fatalf("WaitForExit() error = %v", err)
	}

	status, err := mgr.Status(result.JobID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Status != StatusCanceled {
		t.Errorf("final Status = %v, want %v", status.Status, StatusCanceled)
	}
}

func TestManager_CancelOnAlreadyTerminalJobReturnsFalse(t *testing.T) {
	launcher := &fakeLauncher{}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent"})

	result, err := mgr.SpawnFromRequest(context.Background(), "do something", RequestOptions{})
	if err != nil {
		t.Fatalf("SpawnFromRequest() error = %v", err)
	}
	if ok, err := mgr.Cancel(result.JobID, false); err != nil || !ok {
		t.Fatalf("first Cancel() = %v, %v, want true, nil", ok, err)
	}
	if _, err := mgr.WaitForExit(result.JobID, 1000); err != nil {
		t.Fatalf("WaitForExit() error = %v", err)
	}

	ok, err := mgr.Cancel(result.JobID, false)
	if err != nil {
		t.Fatalf("second Cancel() error = %v", err)
	}
	if ok {
		t.Error("second Cancel() on an already-terminal job returned true, want false")
	}
}

func TestManager_CancelUnknownJob(t *testing.T) {
	mgr := NewManager(ManagerOptions{Launcher: &fakeLauncher{}, Binary: "fake-agent"})
	if _, err := mgr.Cancel("not-a-real-job", false); err == nil {
		t.Error("Cancel() on an unknown job returned no error")
	}
}

func TestClassifyTermination(t *testing.T) {
	tests := []struct {
		name            string
		cancelRequested bool
		turnCompleted   bool
		exitCode        int
		want            JobStatus
	}{
		{"cancel before turn completes forces canceled", true, false, 0, StatusCanceled},
		{"cancel after turn completes is not forced canceled", true, true, 0, StatusDone},
		{"clean exit is done", false, false, 0, StatusDone},
		{"nonzero exit is failed", false, false, 1, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTermination(tt.cancelRequested, tt.turnCompleted, tt.exitCode)
			if got != tt.want {
				t.Errorf("classifyTermination(%v, %v, %d) = %v, want %v",
					tt.cancelRequested, tt.turnCompleted, tt.exitCode, got, tt.want)
			}
		})
	}
}

func TestManager_ResultBeforeTerminationIsEmpty(t *testing.T) {
	launcher := &fakeLauncher{}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent"})

	result, err := mgr.SpawnFromRequest(context.Background(), "do something", RequestOptions{})
	if err != nil {
		t.Fatalf("SpawnFromRequest() error = %v", err)
	}

	view, err := mgr.Result(result.JobID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if view.FinalMessage != "" {
		t.Errorf("Result() FinalMessage = %q for a still-running job with no message, want empty", view.FinalMessage)
	}
}

func TestManager_ConcurrencyCapRejectsOverflow(t *testing.T) {
	const capEnvVar = "SUBAGENTD_TEST_CONCURRENCY_CAP"
	t.Setenv(capEnvVar, "1")

	launcher := &fakeLauncher{}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent", ConcurrencyCapEnvVar: capEnvVar})

	if _, err := mgr.SpawnFromRequest(context.Background(), "job one", RequestOptions{}); err != nil {
		t.Fatalf("first SpawnFromRequest() unexpectedly failed: %v", err)
	}

	_, err := mgr.SpawnFromRequest(context.Background(), "job two", RequestOptions{})
	if err == nil {
		t.Error("second SpawnFromRequest() with cap=1 succeeded, want a concurrency-cap error")
	}
}

func TestManager_ConcurrencyCapReleasesSlotAfterTermination(t *testing.T) {
	const capEnvVar = "SUBAGENTD_TEST_CONCURRENCY_CAP_RELEASE"
	t.Setenv(capEnvVar, "1")

	launcher := &fakeLauncher{}
	mgr := NewManager(ManagerOptions{Launcher: launcher, Binary: "fake-agent", ConcurrencyCapEnvVar: capEnvVar})

	first, err := mgr.SpawnFromRequest(context.Background(), "job one", RequestOptions{})
	if err != nil {
		t.Fatalf("first SpawnFromRequest() error = %v", err)
	}
	if _, err := mgr.Cancel(first.JobID, false); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := mgr.WaitForExit(first.JobID, 1000); err != nil {
		t.Fatalf("WaitForExit() error = %v", err)
	}

	if _, err := mgr.SpawnFromRequest(context.Background(), "job two", RequestOptions{}); err != nil {
		t.Errorf("second SpawnFromRequest() after first job terminated should succeed, got error: %v", err)
	}
}
