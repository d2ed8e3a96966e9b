package rank

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mintwave/recsys/core"
)

type fakeCatalog struct {
	contents map[string]*core.ContentFeatures
}

func (f *fakeCatalog) GetContent(ctx context.Context, contentID string) (*core.ContentFeatures, error) {
	c, ok := f.contents[contentID]
	if !ok {
		return nil, core.ErrContentNotFound
	}
	return c, nil
}

func (f *fakeCatalog) ListPublished(ctx context.Context) ([]*core.ContentFeatures, error) {
	out := make([]*core.ContentFeatures, 0, len(f.contents))
	for _, c := range f.contents {
		out = append(out, c)
	}
	return out, nil
}

func scored(id string, score float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	return it
}

func TestAdvancedRankSignals(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{contents: map[string]*core.ContentFeatures{
		"c1": {
			ContentID:    "c1",
			Views:        1000,
			Likes:        100, // pop = 1300（批内最大），like rate 0.1
			PublishedAt:  now, // freshness = 1
			CreatorSince: now.Add(-2 * 365 * 24 * time.Hour), // reputation = 1
		},
		"c2": {
			ContentID:   "c2",
			Views:       130, // pop = 130 → 0.1
			PublishedAt: now.Add(-70 * 24 * time.Hour), // 10 个半衰期，freshness ≈ 0
		},
	}}
	n := &AdvancedRankNode{Catalog: catalog, Now: func() time.Time { return now }}

	items, err := n.Process(context.Background(), core.NewRecommendContext("alice"),
		[]*core.Item{scored("c1", 0.5), scored("c2", 0.5)})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	var c1, c2 *core.Item
	for _, it := range items {
		switch it.ID {
		case "c1":
			c1 = it
		case "c2":
			c2 = it
		}
	}
	// c1: 0.5×0.6 + 1×0.15 + 1×0.10 + 0.1×0.10 + 1×0.05 = 0.61
	want := 0.5*0.6 + 0.15 + 0.10 + 0.1*0.10 + 0.05
	if math.Abs(c1.Score-want) > 1e-9 {
		t.Errorf("c1 score = %v, want %v", c1.Score, want)
	}
	if c1.Signals["base"] != 0.5 {
		t.Errorf("base signal = %v, want 0.5", c1.Signals["base"])
	}
	if c1.Signals["popularity"] != 1 {
		t.Errorf("popularity signal = %v, want 1", c1.Signals["popularity"])
	}
	if c1.Signals["reputation"] != 1 {
		t.Errorf("reputation signal = %v, want 1", c1.Signals["reputation"])
	}
	if c2.Score >= c1.Score {
		t.Errorf("c1 should outrank c2: %v vs %v", c1.Score, c2.Score)
	}
	if items[0].ID != "c1" {
		t.Errorf("output not re-sorted, got %s first", items[0].ID)
	}
}

func TestAdvancedRankMissingCatalogEntry(t *testing.T) {
	n := &AdvancedRankNode{Catalog: &fakeCatalog{contents: map[string]*core.ContentFeatures{}}}
	items, err := n.Process(context.Background(), core.NewRecommendContext("alice"),
		[]*core.Item{scored("ghost", 0.8)})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// 缺目录条目：只保留基础分 × 基础权重
	want := 0.8 * 0.6
	if math.Abs(items[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", items[0].Score, want)
	}
}

func TestCreatorReputation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		since time.Time
		want  float64
	}{
		{name: "zero time", since: time.Time{}, want: 0},
		{name: "future registration", since: now.Add(time.Hour), want: 0},
		{name: "over a year", since: now.Add(-400 * 24 * time.Hour), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := creatorReputation(now, tt.since); got != tt.want {
				t.Errorf("creatorReputation() = %v, want %v", got, tt.want)
			}
		})
	}
}
