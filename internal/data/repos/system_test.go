package repos

import (
	"context"
	"testing"
	"time"

	"github.com/fairwaylabs/swingsense-backend/internal/data/repos/testutil"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

func TestSystemRepoAdjustmentFactors(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewSystemRepo(gdb, testutil.Logger(t))

	// Empty state reads as zero factors.
	factors, err := repo.AdjustmentFactors(ctx, tx)
	if err != nil {
		t.Fatalf("AdjustmentFactors: %v", err)
	}
	if factors.Overall != 0 || len(factors.Metrics) != 0 {
		t.Fatalf("empty state not zero: %+v", factors)
	}

	next := scoring.ZeroFactors()
	next.Overall = -2
	next.Metrics[scoring.MetricGrip] = 3
	next.BySkillLevel = map[scoring.SkillLevel]scoring.FactorSet{
		scoring.SkillAmateur: {Overall: -2, Metrics: map[scoring.Metric]int{scoring.MetricGrip: 4}},
	}
	next.UpdatedAt = time.Now().UTC()
	if err := repo.ReplaceAdjustmentFactors(ctx, tx, next); err != nil {
		t.Fatalf("ReplaceAdjustmentFactors: %v", err)
	}

	got, err := repo.AdjustmentFactors(ctx, tx)
	if err != nil {
		t.Fatalf("AdjustmentFactors after replace: %v", err)
	}
	if got.Overall != -2 || got.Metrics[scoring.MetricGrip] != 3 {
		t.Fatalf("read back %+v", got)
	}
	if got.BySkillLevel[scoring.SkillAmateur].Metrics[scoring.MetricGrip] != 4 {
		t.Fatalf("skill slice lost: %+v", got.BySkillLevel)
	}

	// Replacement, not merge: a new doc without the grip factor drops it.
	replaced := scoring.ZeroFactors()
	replaced.Overall = 1
	if err := repo.ReplaceAdjustmentFactors(ctx, tx, replaced); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	got, err = repo.AdjustmentFactors(ctx, tx)
	if err != nil {
		t.Fatalf("AdjustmentFactors after second replace: %v", err)
	}
	if got.Overall != 1 || got.Metrics[scoring.MetricGrip] != 0 {
		t.Fatalf("old document leaked into replacement: %+v", got)
	}
}

func TestSystemRepoLastProcessedAt(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	repo := NewSystemRepo(gdb, testutil.Logger(t))

	at, err := repo.LastProcessedAt(ctx, tx)
	if err != nil {
		t.Fatalf("LastProcessedAt: %v", err)
	}
	if !at.IsZero() {
		t.Fatalf("empty state not zero time: %v", at)
	}

	want := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.SetLastProcessedAt(ctx, tx, want); err != nil {
		t.Fatalf("SetLastProcessedAt: %v", err)
	}
	at, err = repo.LastProcessedAt(ctx, tx)
	if err != nil {
		t.Fatalf("LastProcessedAt after set: %v", err)
	}
	if !at.Equal(want) {
		t.Fatalf("read back %v, want %v", at, want)
	}
}
