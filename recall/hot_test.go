package recall

import (
	"context"
	"testing"
	"time"

	"github.com/mintwave/recsys/core"
)

type fakeCatalog struct {
	contents []*core.ContentFeatures
}

func (f *fakeCatalog) GetContent(ctx context.Context, contentID string) (*core.ContentFeatures, error) {
	for _, c := range f.contents {
		if c.ContentID == contentID {
			return c, nil
		}
	}
	return nil, core.ErrContentNotFound
}

func (f *fakeCatalog) ListPublished(ctx context.Context) ([]*core.ContentFeatures, error) {
	return f.contents, nil
}

func TestHotRecallPopularity(t *testing.T) {
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "top", Views: 700, Likes: 100, PublishedAt: old}, // pop = 1000
		{ContentID: "mid", Views: 200, Likes: 100, PublishedAt: old}, // pop = 500
		{ContentID: "low", Views: 100, Likes: 0, PublishedAt: old},   // pop = 100
	}}
	r := &HotRecall{Catalog: catalog, Now: func() time.Time { return now }}

	items, err := r.Recall(context.Background(), core.NewRecommendContext("anyone"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Recall() returned %d items, want 3", len(items))
	}
	if items[0].ID != "top" || items[1].ID != "mid" || items[2].ID != "low" {
		t.Errorf("ranking = [%s %s %s], want [top mid low]", items[0].ID, items[1].ID, items[2].ID)
	}
	if items[0].Score != 1 {
		t.Errorf("max popularity score = %v, want 1", items[0].Score)
	}
	if items[1].Score != 0.5 {
		t.Errorf("mid popularity score = %v, want 0.5", items[1].Score)
	}
	for _, it := range items {
		if it.Reason != core.ReasonFallbackPopular {
			t.Errorf("reason = %q, want %q", it.Reason, core.ReasonFallbackPopular)
		}
	}
}

func TestHotRecallFreshnessBonus(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "stale", Views: 100, PublishedAt: now.Add(-30 * 24 * time.Hour)},
		{ContentID: "fresh", Views: 100, PublishedAt: now.Add(-time.Hour)},
	}}
	r := &HotRecall{Catalog: catalog, Now: func() time.Time { return now }}

	items, err := r.Recall(context.Background(), core.NewRecommendContext("anyone"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if items[0].ID != "fresh" {
		t.Errorf("fresh content should outrank stale at equal popularity, got %s first", items[0].ID)
	}
}

func TestHotRecallRecentFallback(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "older", PublishedAt: now.Add(-48 * time.Hour)},
		{ContentID: "newest", PublishedAt: now.Add(-time.Hour)},
	}}
	r := &HotRecall{Catalog: catalog, Now: func() time.Time { return now }}

	items, err := r.Recall(context.Background(), core.NewRecommendContext("anyone"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Recall() returned %d items, want 2", len(items))
	}
	if items[0].ID != "newest" {
		t.Errorf("without popularity counters newest-first expected, got %s", items[0].ID)
	}
	for _, it := range items {
		if it.Reason != core.ReasonFallbackRecent {
			t.Errorf("reason = %q, want %q", it.Reason, core.ReasonFallbackRecent)
		}
	}
}

type fakeBoard struct {
	entries []core.RankedContent
}

func (f *fakeBoard) TopContent(ctx context.Context, limit int) ([]core.RankedContent, error) {
	return f.entries, nil
}

func TestHotRecallPopularityBoard(t *testing.T) {
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)
	// 目录计数与榜单相反：榜单应当优先
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "a", Views: 1000, PublishedAt: old},
		{ContentID: "b", Views: 10, PublishedAt: old},
	}}
	board := &fakeBoard{entries: []core.RankedContent{
		{ContentID: "b", Score: 40},
		{ContentID: "a", Score: 10},
	}}
	r := &HotRecall{Catalog: catalog, Popularity: board, Now: func() time.Time { return now }}

	items, err := r.Recall(context.Background(), core.NewRecommendContext("anyone"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Recall() returned %d items, want 2", len(items))
	}
	if items[0].ID != "b" || items[1].ID != "a" {
		t.Errorf("ranking = [%s %s], want board order [b a]", items[0].ID, items[1].ID)
	}
	if items[0].Score != 1 {
		t.Errorf("board top score = %v, want 1", items[0].Score)
	}
	if items[1].Score != 0.25 {
		t.Errorf("board second score = %v, want 0.25", items[1].Score)
	}
	for _, it := range items {
		if it.Reason != core.ReasonFallbackPopular {
			t.Errorf("reason = %q, want %q", it.Reason, core.ReasonFallbackPopular)
		}
	}
}

func TestHotRecallEmptyBoardFallsBackToCounters(t *testing.T) {
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "a", Views: 1000, PublishedAt: old},
		{ContentID: "b", Views: 10, PublishedAt: old},
	}}
	r := &HotRecall{Catalog: catalog, Popularity: &fakeBoard{}, Now: func() time.Time { return now }}

	items, err := r.Recall(context.Background(), core.NewRecommendContext("anyone"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" {
		t.Errorf("empty board should fall back to catalog counters, got %v", items)
	}
}

func TestHotRecallBoardCategoryScope(t *testing.T) {
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "m1", Category: "music", Views: 100},
		{ContentID: "a1", Category: "art", Views: 500},
	}}
	board := &fakeBoard{entries: []core.RankedContent{
		{ContentID: "a1", Score: 50},
		{ContentID: "m1", Score: 20},
	}}
	r := &HotRecall{Catalog: catalog, Popularity: board}

	rctx := core.NewRecommendContext("anyone")
	rctx.Options.Category = "music"
	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "m1" {
		t.Errorf("category scope violated on board path: %v", items)
	}
}

func TestHotRecallCategoryScope(t *testing.T) {
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "m1", Category: "music", Views: 100},
		{ContentID: "a1", Category: "art", Views: 500},
	}}
	r := &HotRecall{Catalog: catalog}

	rctx := core.NewRecommendContext("anyone")
	rctx.Options.Category = "music"
	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "m1" {
		t.Errorf("category scope violated: %v", items)
	}
}
