package match

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/ARONDALTON/callisto-core/pepper"
	"github.com/ARONDALTON/callisto-core/store"
	"github.com/ARONDALTON/callisto-core/types"
)

// testIterations keeps the KDF cheap in tests; production uses the default.
const testIterations = 1000

func newTestPepper(t *testing.T) *pepper.Layer {
	t.Helper()
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("failed to generate pepper secret: %v", err)
	}
	layer, err := pepper.New(secret)
	if err != nil {
		t.Fatalf("failed to create pepper layer: %v", err)
	}
	return layer
}

func newTestService(t *testing.T, mem *store.MemoryStore, layer *pepper.Layer) *matchService {
	t.Helper()
	svc, err := NewService(mem, layer, nil, nil, types.CryptoConfig{Iterations: testIterations}, 2)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc.(*matchService)
}

// submitAll creates one report and match report per entry and returns the
// unseen candidate pool.
func submitAll(t *testing.T, svc *matchService, mem *store.MemoryStore, entries []struct{ identifier, plaintext string }) []*types.MatchReport {
	t.Helper()
	ctx := context.Background()
	for i, entry := range entries {
		rec := &types.Report{ID: string(rune('A' + i)), Owner: "user"}
		if _, err := svc.Submit(ctx, rec, entry.identifier, entry.plaintext); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	candidates, err := mem.ListUnseenMatchReports(ctx)
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}
	return candidates
}

func TestScanFindsAllMatches(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, newTestPepper(t))
	ctx := context.Background()

	candidates := submitAll(t, svc, mem, []struct{ identifier, plaintext string }{
		{"alice123", "report-A"},
		{"bob456", "report-B"},
		{"alice123", "report-C"},
	})
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}

	results, err := svc.Scan(ctx, "alice123", candidates)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	got := make(map[string]bool)
	for _, result := range results {
		got[result.Plaintext] = true
	}
	if len(got) != 2 || !got["report-A"] || !got["report-C"] {
		t.Errorf("expected matches {report-A, report-C}, got %v", got)
	}

	// Matched records are flagged seen; only the non-match remains eligible.
	remaining, err := mem.ListUnseenMatchReports(ctx)
	if err != nil {
		t.Fatalf("failed to list remaining candidates: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 unseen candidate after scan, got %d", len(remaining))
	}
	if remaining[0].ReportID != "B" {
		t.Errorf("wrong candidate left unseen: %s", remaining[0].ReportID)
	}
}

func TestScanNoFalsePositives(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, newTestPepper(t))
	ctx := context.Background()

	candidates := submitAll(t, svc, mem, []struct{ identifier, plaintext string }{
		{"alice123", "report-A"},
		{"bob456", "report-B"},
	})

	results, err := svc.Scan(ctx, "carol789", candidates)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no matches, got %d", len(results))
	}

	remaining, err := mem.ListUnseenMatchReports(ctx)
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("non-matching scan must not mark candidates seen")
	}
}

func TestScanWrongPepperMatchesNothing(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, newTestPepper(t))

	candidates := submitAll(t, svc, mem, []struct{ identifier, plaintext string }{
		{"alice123", "report-A"},
		{"alice123", "report-C"},
	})

	// Same identifier, different pepper secret: even true matches stay silent.
	other := newTestService(t, mem, newTestPepper(t))
	results, err := other.Scan(context.Background(), "alice123", candidates)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no matches under a wrong pepper secret, got %d", len(results))
	}
}

func TestSubmitFreshSaltPerRecord(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, newTestPepper(t))
	ctx := context.Background()

	rec := &types.Report{ID: "rec-1", Owner: "user"}
	first, err := svc.Submit(ctx, rec, "alice123", "text")
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := svc.Submit(ctx, rec, "alice123", "text")
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	if first.Salt == second.Salt {
		t.Errorf("each match report must get its own salt")
	}
	if first.ReportID != "rec-1" || second.ReportID != "rec-1" {
		t.Errorf("back-reference not set")
	}
}

func TestSubmitValidation(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, newTestPepper(t))
	ctx := context.Background()

	if _, err := svc.Submit(ctx, nil, "alice123", "text"); !errors.Is(err, ErrNilRecord) {
		t.Errorf("expected ErrNilRecord, got %v", err)
	}
	if _, err := svc.Submit(ctx, &types.Report{ID: "rec-1"}, "", "text"); !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("expected ErrMissingIdentifier, got %v", err)
	}
	if _, err := svc.Scan(ctx, "", nil); !errors.Is(err, ErrMissingIdentifier) {
		t.Errorf("expected ErrMissingIdentifier, got %v", err)
	}
}

func TestScanCancellation(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, newTestPepper(t))

	candidates := submitAll(t, svc, mem, []struct{ identifier, plaintext string }{
		{"alice123", "report-A"},
		{"bob456", "report-B"},
		{"alice123", "report-C"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Scan(ctx, "alice123", candidates); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScanWithCoordinator(t *testing.T) {
	mem := store.NewMemoryStore()
	layer := newTestPepper(t)
	coordinator := NewCoordinator()
	svcIface, err := NewService(mem, layer, nil, coordinator, types.CryptoConfig{Iterations: testIterations}, 2)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	svc := svcIface.(*matchService)

	candidates := submitAll(t, svc, mem, []struct{ identifier, plaintext string }{
		{"alice123", "report-A"},
	})

	results, err := svc.Scan(context.Background(), "alice123", candidates)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 match, got %d", len(results))
	}

	// The scan deregisters itself when finished.
	if scans := coordinator.ListScans(); len(scans) != 0 {
		t.Errorf("expected no active scans after completion, got %d", len(scans))
	}
}

func TestScanEmptyPool(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, newTestPepper(t))

	results, err := svc.Scan(context.Background(), "alice123", nil)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no matches for an empty pool")
	}
}
