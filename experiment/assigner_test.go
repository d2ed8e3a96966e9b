package experiment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mintwave/recsys/store"
)

func TestHashAssignerDeterministic(t *testing.T) {
	a := &HashAssigner{}
	ctx := context.Background()

	first, err := a.Assign(ctx, "0xwallet1")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := a.Assign(ctx, "0xwallet1")
		if err != nil {
			t.Fatalf("Assign() error = %v", err)
		}
		if got != first {
			t.Fatalf("assignment not deterministic: %q vs %q", got, first)
		}
	}
}

func TestHashAssignerDistribution(t *testing.T) {
	a := &HashAssigner{}
	ctx := context.Background()

	counts := make(map[string]int)
	const n = 3000
	for i := 0; i < n; i++ {
		group, err := a.Assign(ctx, fmt.Sprintf("0xwallet%d", i))
		if err != nil {
			t.Fatalf("Assign() error = %v", err)
		}
		counts[group]++
	}
	for _, group := range Groups() {
		share := float64(counts[group]) / n
		if share < 0.25 || share > 0.45 {
			t.Errorf("group %s share = %.3f, expected roughly a third", group, share)
		}
	}
}

func TestHashAssignerStickyViaCache(t *testing.T) {
	cache := store.NewMemoryStore()
	defer cache.Close()
	a := &HashAssigner{Cache: cache, TTL: 7 * 24 * time.Hour}
	ctx := context.Background()

	group, err := a.Assign(ctx, "0xwallet1")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	// 缓存中的分组优先于哈希结果
	if err := cache.Set(ctx, "exp:group:0xwallet1", []byte(GroupControl), 60); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := a.Assign(ctx, "0xwallet1")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if got != GroupControl {
		t.Errorf("cached group ignored: got %q (hash gave %q)", got, group)
	}
}

func TestOutcomeStatsAndWinner(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	r := &OutcomeRecorder{Store: kv}
	ctx := context.Background()

	record := func(group string, typ OutcomeType, n int) {
		for i := 0; i < n; i++ {
			if err := r.Record(ctx, Outcome{
				UserID: fmt.Sprintf("u%d", i), Group: group, ContentID: "c1", Type: typ,
			}); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}
	}

	// hybrid 的点击率与购买率都更高
	record(GroupControl, OutcomeImpression, 100)
	record(GroupControl, OutcomeClick, 10)
	record(GroupHybrid, OutcomeImpression, 100)
	record(GroupHybrid, OutcomeClick, 30)
	record(GroupHybrid, OutcomePurchase, 5)

	stats, err := r.Stats(ctx, GroupHybrid)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Impressions != 100 || stats.Clicks != 30 || stats.Purchases != 5 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.CTR != 0.3 {
		t.Errorf("CTR = %v, want 0.3", stats.CTR)
	}
	wantScore := 0.4*0.3 + 0.4*0 + 0.2*0.05
	if diff := stats.Score - wantScore; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v", stats.Score, wantScore)
	}

	winner, all, err := r.Winner(ctx)
	if err != nil {
		t.Fatalf("Winner() error = %v", err)
	}
	if winner != GroupHybrid {
		t.Errorf("winner = %q, want %q", winner, GroupHybrid)
	}
	if len(all) != len(Groups()) {
		t.Errorf("expected stats for all %d groups, got %d", len(Groups()), len(all))
	}
}

func TestOutcomeWinnerNoData(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	r := &OutcomeRecorder{Store: kv}

	winner, _, err := r.Winner(context.Background())
	if err != nil {
		t.Fatalf("Winner() error = %v", err)
	}
	if winner != "" {
		t.Errorf("winner = %q, want empty without impressions", winner)
	}
}

func TestOutcomeListBounded(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	r := &OutcomeRecorder{Store: kv, MaxPerGroup: 10}
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if err := r.Record(ctx, Outcome{UserID: "u", Group: GroupControl, Type: OutcomeImpression}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	stats, err := r.Stats(ctx, GroupControl)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Impressions != 10 {
		t.Errorf("list not trimmed: %d impressions, want 10", stats.Impressions)
	}
}
