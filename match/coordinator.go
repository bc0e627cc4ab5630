package match

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type ScanStatus string

const (
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
)

// Scan tracks one in-flight candidate scan. Progress is the fraction of the
// candidate pool processed so far.
type Scan struct {
	ID        string
	Status    ScanStatus
	StartTime time.Time
	Progress  float64
	Error     error
	Cancel    context.CancelFunc
	ctx       context.Context
}

// Context returns the scan's cancellable context.
func (s *Scan) Context() context.Context {
	return s.ctx
}

// Coordinator tracks active scans so long-running trial-decryption passes can
// be observed and cancelled, and so shutdown can wait for them to drain.
type Coordinator struct {
	mu          sync.RWMutex
	activeScans map[string]*Scan
	shutdownCh  chan struct{}
	wg          sync.WaitGroup
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		activeScans: make(map[string]*Scan),
		shutdownCh:  make(chan struct{}),
	}
}

func (c *Coordinator) StartScan(ctx context.Context, scanID string) (*Scan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isShuttingDownLocked() {
		return nil, fmt.Errorf("coordinator is shutting down")
	}
	if _, exists := c.activeScans[scanID]; exists {
		return nil, fmt.Errorf("scan %s already exists", scanID)
	}

	scanCtx, cancel := context.WithCancel(ctx)

	scan := &Scan{
		ID:        scanID,
		Status:    StatusRunning,
		StartTime: time.Now(),
		Cancel:    cancel,
		ctx:       scanCtx,
	}

	c.activeScans[scanID] = scan
	c.wg.Add(1)

	go func() {
		<-scanCtx.Done()
		c.mu.Lock()
		if s, exists := c.activeScans[scanID]; exists && s.Status == StatusRunning {
			s.Status = StatusFailed
			s.Error = scanCtx.Err()
		}
		c.mu.Unlock()
	}()

	return scan, nil
}

func (c *Coordinator) FinishScan(scanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if scan, exists := c.activeScans[scanID]; exists {
		scan.Cancel()
		delete(c.activeScans, scanID)
		c.wg.Done()
	}
}

func (c *Coordinator) UpdateScanStatus(scanID string, status ScanStatus, progress float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if scan, exists := c.activeScans[scanID]; exists {
		scan.Status = status
		scan.Progress = progress
		scan.Error = err
	}
}

func (c *Coordinator) GetScanStatus(scanID string) *Scan {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if scan, exists := c.activeScans[scanID]; exists {
		// Return a copy to prevent race conditions
		return &Scan{
			ID:        scan.ID,
			Status:    scan.Status,
			StartTime: scan.StartTime,
			Progress:  scan.Progress,
			Error:     scan.Error,
		}
	}
	return nil
}

func (c *Coordinator) ListScans() []*Scan {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scans := make([]*Scan, 0, len(c.activeScans))
	for _, scan := range c.activeScans {
		scans = append(scans, &Scan{
			ID:        scan.ID,
			Status:    scan.Status,
			StartTime: scan.StartTime,
			Progress:  scan.Progress,
			Error:     scan.Error,
		})
	}
	return scans
}

func (c *Coordinator) Shutdown(ctx context.Context) error {
	close(c.shutdownCh)

	c.mu.Lock()
	for _, scan := range c.activeScans {
		scan.Cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) IsShuttingDown() bool {
	return c.isShuttingDownLocked()
}

func (c *Coordinator) isShuttingDownLocked() bool {
	select {
	case <-c.shutdownCh:
		return true
	default:
		return false
	}
}
