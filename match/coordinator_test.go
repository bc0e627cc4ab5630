package match

import (
	"context"
	"testing"
	"time"
)

func TestCoordinatorStartAndFinish(t *testing.T) {
	c := NewCoordinator()
	ctx := context.Background()

	scan, err := c.StartScan(ctx, "scan-1")
	if err != nil {
		t.Fatalf("failed to start scan: %v", err)
	}
	if scan.Status != StatusRunning {
		t.Errorf("expected running status, got %s", scan.Status)
	}

	if _, err := c.StartScan(ctx, "scan-1"); err == nil {
		t.Errorf("expected an error for a duplicate scan ID")
	}

	c.UpdateScanStatus("scan-1", StatusRunning, 0.5, nil)
	status := c.GetScanStatus("scan-1")
	if status == nil || status.Progress != 0.5 {
		t.Errorf("expected progress 0.5, got %+v", status)
	}

	c.FinishScan("scan-1")
	if c.GetScanStatus("scan-1") != nil {
		t.Errorf("expected scan to be removed after finish")
	}
	if len(c.ListScans()) != 0 {
		t.Errorf("expected no active scans")
	}

	// Finishing twice is a no-op.
	c.FinishScan("scan-1")
}

func TestCoordinatorCancellationMarksFailed(t *testing.T) {
	c := NewCoordinator()

	scan, err := c.StartScan(context.Background(), "scan-1")
	if err != nil {
		t.Fatalf("failed to start scan: %v", err)
	}

	scan.Cancel()

	deadline := time.After(time.Second)
	for {
		status := c.GetScanStatus("scan-1")
		if status != nil && status.Status == StatusFailed {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("scan was not marked failed after cancellation")
		case <-time.After(5 * time.Millisecond):
		}
	}

	c.FinishScan("scan-1")
}

func TestCoordinatorShutdown(t *testing.T) {
	c := NewCoordinator()

	scan, err := c.StartScan(context.Background(), "scan-1")
	if err != nil {
		t.Fatalf("failed to start scan: %v", err)
	}

	go func() {
		<-scan.Context().Done()
		c.FinishScan("scan-1")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !c.IsShuttingDown() {
		t.Errorf("expected coordinator to report shutting down")
	}

	if _, err := c.StartScan(context.Background(), "scan-2"); err == nil {
		t.Errorf("expected an error when starting a scan during shutdown")
	}
}
