package filter

import (
	"context"
	"testing"

	"github.com/mintwave/recsys/core"
)

type fakeInteractions struct {
	viewed map[string][]string
}

func (f *fakeInteractions) GetUserInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	var out []core.Interaction
	for _, id := range f.viewed[userID] {
		out = append(out, core.Interaction{UserID: userID, ContentID: id, Type: core.InteractionView, Weight: 1})
	}
	return out, nil
}

func (f *fakeInteractions) GetContentInteractions(ctx context.Context, contentID string) ([]core.Interaction, error) {
	return nil, nil
}

func (f *fakeInteractions) GetActiveUsers(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeInteractions) GetActiveContent(ctx context.Context) ([]string, error) { return nil, nil }

type fakeLedger struct {
	purchases map[string][]string
}

func (f *fakeLedger) GetPurchases(ctx context.Context, userID string) ([]string, error) {
	return f.purchases[userID], nil
}

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.Score = 0.5
		out = append(out, it)
	}
	return out
}

func TestExclusionFilter(t *testing.T) {
	tests := []struct {
		name             string
		excludeViewed    bool
		excludePurchased bool
		wantIDs          []string
	}{
		{
			name:             "exclude both",
			excludeViewed:    true,
			excludePurchased: true,
			wantIDs:          []string{"c3"},
		},
		{
			name:          "exclude viewed only",
			excludeViewed: true,
			wantIDs:       []string{"c2", "c3"},
		},
		{
			name:             "exclude purchased only",
			excludePurchased: true,
			wantIDs:          []string{"c1", "c3"},
		},
		{
			name:    "exclude nothing",
			wantIDs: []string{"c1", "c2", "c3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &FilterNode{Filters: []Filter{NewExclusionFilter(
				&fakeInteractions{viewed: map[string][]string{"alice": {"c1"}}},
				&fakeLedger{purchases: map[string][]string{"alice": {"c2"}}},
			)}}
			rctx := core.NewRecommendContext("alice")
			rctx.Options.ExcludeViewed = tt.excludeViewed
			rctx.Options.ExcludePurchased = tt.excludePurchased

			out, err := node.Process(context.Background(), rctx, items("c1", "c2", "c3"))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(out) != len(tt.wantIDs) {
				t.Fatalf("got %d items, want %d", len(out), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if out[i].ID != want {
					t.Errorf("item[%d] = %s, want %s", i, out[i].ID, want)
				}
			}
		})
	}
}

func TestRuleFilter(t *testing.T) {
	rule, err := NewRuleFilter("low-score", "item.score < 0.3")
	if err != nil {
		t.Fatalf("NewRuleFilter() error = %v", err)
	}
	node := &FilterNode{Filters: []Filter{rule}}

	low := core.NewItem("low")
	low.Score = 0.1
	high := core.NewItem("high")
	high.Score = 0.9

	out, err := node.Process(context.Background(), core.NewRecommendContext("alice"), []*core.Item{low, high})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "high" {
		t.Errorf("rule filter failed: %v", out)
	}
}

func TestRuleFilterInvalidExpression(t *testing.T) {
	if _, err := NewRuleFilter("bad", "item.score <<< 1"); err == nil {
		t.Error("expected compile error for invalid expression")
	}
}
