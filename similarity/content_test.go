package similarity

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

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestContentSimilarity(t *testing.T) {
	s := NewContentSimilarity()

	tests := []struct {
		name      string
		profile   *core.ContentFeatures
		candidate *core.ContentFeatures
		want      float64
	}{
		{
			name: "full match across all features",
			profile: &core.ContentFeatures{
				Category: "music", Tags: []string{"jazz", "live"},
				FileType: "mp3", CreatorAddress: "0xabc", Fingerprint: "ff00",
			},
			candidate: &core.ContentFeatures{
				Category: "music", Tags: []string{"jazz", "live"},
				FileType: "mp3", CreatorAddress: "0xabc", Fingerprint: "ff00",
			},
			want: 1.0,
		},
		{
			name:      "category only",
			profile:   &core.ContentFeatures{Category: "art"},
			candidate: &core.ContentFeatures{Category: "art"},
			want:      0.30,
		},
		{
			name:    "partial tag overlap",
			profile: &core.ContentFeatures{Tags: []string{"jazz", "live"}},
			candidate: &core.ContentFeatures{
				Tags: []string{"jazz", "studio"},
			},
			// 0.35 × 1/sqrt(2×2)
			want: 0.35 * 0.5,
		},
		{
			name:      "no matching features",
			profile:   &core.ContentFeatures{Category: "music", Tags: []string{"jazz"}},
			candidate: &core.ContentFeatures{Category: "ebook", Tags: []string{"sci-fi"}},
			want:      0,
		},
		{
			name:      "nil candidate",
			profile:   &core.ContentFeatures{Category: "music"},
			candidate: nil,
			want:      0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := s.Similarity(tt.profile, tt.candidate)
			if !almostEqual(got, tt.want) {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentSimilarityMatchedLabels(t *testing.T) {
	s := NewContentSimilarity()
	profile := &core.ContentFeatures{Category: "music", CreatorAddress: "0xabc"}
	candidate := &core.ContentFeatures{Category: "music", CreatorAddress: "0xabc"}

	_, matched := s.Similarity(profile, candidate)
	want := map[string]bool{"category:music": true, "creator": true}
	if len(matched) != len(want) {
		t.Fatalf("matched = %v, want keys %v", matched, want)
	}
	for _, m := range matched {
		if !want[m] {
			t.Errorf("unexpected matched feature %q", m)
		}
	}
}

func TestFingerprintSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "ffff", b: "ffff", want: 1},
		{name: "fully different", a: "ffff", b: "0000", want: 0},
		{name: "one nibble differs by one bit", a: "f0", b: "f1", want: 1 - 1.0/8},
		{name: "length mismatch", a: "ff", b: "fff", want: 0},
		{name: "empty", a: "", b: "", want: 0},
		{name: "invalid hex", a: "zz", b: "ff", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fingerprintSimilarity(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("fingerprintSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestProfileBuilder(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{contents: map[string]*core.ContentFeatures{
		"c1": {ContentID: "c1", Category: "music", Tags: []string{"jazz"}, FileType: "mp3", CreatorAddress: "0xaaa", Fingerprint: "ff00"},
		"c2": {ContentID: "c2", Category: "music", Tags: []string{"jazz", "live"}, FileType: "mp3", CreatorAddress: "0xbbb"},
		"c3": {ContentID: "c3", Category: "art", Tags: []string{"abstract"}, FileType: "png", CreatorAddress: "0xaaa"},
	}}
	interactions := newFakeInteractions(
		// purchase 权重最高，music 类目应胜出
		core.Interaction{UserID: "alice", ContentID: "c1", Type: core.InteractionPurchase, Weight: 10, Timestamp: now},
		core.Interaction{UserID: "alice", ContentID: "c2", Type: core.InteractionLike, Weight: 3, Timestamp: now.Add(-time.Hour)},
		core.Interaction{UserID: "alice", ContentID: "c3", Type: core.InteractionView, Weight: 1, Timestamp: now.Add(-2 * time.Hour)},
	)
	b := &ProfileBuilder{Interactions: interactions, Catalog: catalog}

	profile, summary, err := b.Build(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if profile == nil || summary == nil {
		t.Fatal("Build() returned nil profile or summary")
	}
	if profile.Category != "music" {
		t.Errorf("profile category = %q, want music", profile.Category)
	}
	if profile.FileType != "mp3" {
		t.Errorf("profile file type = %q, want mp3", profile.FileType)
	}
	if profile.CreatorAddress != "0xaaa" {
		t.Errorf("profile creator = %q, want 0xaaa", profile.CreatorAddress)
	}
	if profile.Fingerprint != "ff00" {
		t.Errorf("profile fingerprint = %q, want ff00 (most recent)", profile.Fingerprint)
	}
	if summary.InteractionCount != 3 {
		t.Errorf("interaction count = %d, want 3", summary.InteractionCount)
	}
	if !almostEqual(summary.AverageWeight, 14.0/3) {
		t.Errorf("average weight = %v, want %v", summary.AverageWeight, 14.0/3)
	}
	if summary.FavoriteCategories["music"] != 13 {
		t.Errorf("music weight = %v, want 13", summary.FavoriteCategories["music"])
	}
}

func TestProfileBuilderEmptyHistory(t *testing.T) {
	b := &ProfileBuilder{
		Interactions: newFakeInteractions(),
		Catalog:      &fakeCatalog{contents: map[string]*core.ContentFeatures{}},
	}
	profile, summary, err := b.Build(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if profile != nil || summary != nil {
		t.Errorf("expected nil profile and summary for empty history, got %v / %v", profile, summary)
	}
}
