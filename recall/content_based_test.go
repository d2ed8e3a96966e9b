package recall

import (
	"context"
	"strings"
	"testing"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/similarity"
)

func newContentBasedFixture() (*ContentBasedRecall, *fakeCatalog) {
	catalog := &fakeCatalog{contents: []*core.ContentFeatures{
		{ContentID: "cX", Category: "music", Tags: []string{"lofi", "chill"}, FileType: "mp3", CreatorAddress: "0xaaa"},
		{ContentID: "cY", Category: "music", Tags: []string{"lofi", "jazz"}, FileType: "mp3", CreatorAddress: "0xbbb"},
		{ContentID: "cZ", Category: "video", Tags: []string{"vlog"}, FileType: "mp4", CreatorAddress: "0xccc"},
	}}
	interactions := newFakeInteractions(
		core.Interaction{UserID: "alice", ContentID: "cX", Type: core.InteractionLike, Weight: 3},
	)
	r := &ContentBasedRecall{
		Profiles: &similarity.ProfileBuilder{Interactions: interactions, Catalog: catalog},
		Catalog:  catalog,
	}
	return r, catalog
}

func TestContentBasedRecall(t *testing.T) {
	r, _ := newContentBasedFixture()

	items, err := r.Recall(context.Background(), core.NewRecommendContext("alice"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	// cY 同类目、标签重叠、同文件类型；cZ 无任何共同特征，低于阈值
	if len(items) != 1 {
		t.Fatalf("Recall() returned %d items, want 1", len(items))
	}
	if items[0].ID != "cY" {
		t.Errorf("recommended %s, want cY", items[0].ID)
	}
	if items[0].Reason != core.ReasonContentBased {
		t.Errorf("reason = %q, want %q", items[0].Reason, core.ReasonContentBased)
	}
	if items[0].Score <= 0 || items[0].Score > 1 {
		t.Errorf("score %v outside (0,1]", items[0].Score)
	}
	label, ok := items[0].Labels["matched_features"]
	if !ok {
		t.Fatal("matched_features label missing")
	}
	if !strings.Contains(label.Value, "category:music") || !strings.Contains(label.Value, "tags") {
		t.Errorf("matched features = %q, want category and tag hits", label.Value)
	}
}

func TestContentBasedRecallExcludesInteracted(t *testing.T) {
	r, _ := newContentBasedFixture()

	items, err := r.Recall(context.Background(), core.NewRecommendContext("alice"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	for _, it := range items {
		if it.ID == "cX" {
			t.Error("already-interacted cX must not be recommended")
		}
	}
}

func TestContentBasedRecallColdUser(t *testing.T) {
	r, _ := newContentBasedFixture()

	items, err := r.Recall(context.Background(), core.NewRecommendContext("nobody"))
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty recall without a profile, got %d items", len(items))
	}
}
