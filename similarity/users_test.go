package similarity

import (
	"context"
	"testing"
	"time"

	"github.com/mintwave/recsys/core"
)

type fakeInteractions struct {
	byUser    map[string][]core.Interaction
	byContent map[string][]core.Interaction
}

func newFakeInteractions(events ...core.Interaction) *fakeInteractions {
	f := &fakeInteractions{
		byUser:    make(map[string][]core.Interaction),
		byContent: make(map[string][]core.Interaction),
	}
	now := time.Now()
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			ev.Timestamp = now
		}
		f.byUser[ev.UserID] = append(f.byUser[ev.UserID], ev)
		f.byContent[ev.ContentID] = append(f.byContent[ev.ContentID], ev)
	}
	return f
}

func (f *fakeInteractions) GetUserInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	return f.byUser[userID], nil
}

func (f *fakeInteractions) GetContentInteractions(ctx context.Context, contentID string) ([]core.Interaction, error) {
	return f.byContent[contentID], nil
}

func (f *fakeInteractions) GetActiveUsers(ctx context.Context) ([]string, error) {
	var out []string
	for id := range f.byUser {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeInteractions) GetActiveContent(ctx context.Context) ([]string, error) {
	var out []string
	for id := range f.byContent {
		out = append(out, id)
	}
	return out, nil
}

func TestCosineOverShared(t *testing.T) {
	tests := []struct {
		name string
		a    map[string]float64
		b    map[string]float64
		want float64
	}{
		{
			name: "identical vectors",
			a:    map[string]float64{"c1": 3, "c2": 5},
			b:    map[string]float64{"c1": 3, "c2": 5},
			want: 1,
		},
		{
			name: "single shared dimension is a perfect match",
			a:    map[string]float64{"c1": 3, "c2": 5},
			b:    map[string]float64{"c2": 1, "c9": 10},
			want: 1,
		},
		{
			name: "no shared dimensions",
			a:    map[string]float64{"c1": 3},
			b:    map[string]float64{"c2": 5},
			want: 0,
		},
		{
			name: "scale invariant on shared dimensions",
			a:    map[string]float64{"c1": 1, "c2": 2},
			b:    map[string]float64{"c1": 10, "c2": 20},
			want: 1,
		},
		{
			name: "empty vector",
			a:    map[string]float64{},
			b:    map[string]float64{"c1": 1},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineOverShared(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineOverShared() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindSimilarUsers(t *testing.T) {
	interactions := newFakeInteractions(
		core.Interaction{UserID: "alice", ContentID: "c1", Type: core.InteractionLike, Weight: 3},
		core.Interaction{UserID: "alice", ContentID: "c2", Type: core.InteractionView, Weight: 1},
		core.Interaction{UserID: "bob", ContentID: "c1", Type: core.InteractionLike, Weight: 3},
		core.Interaction{UserID: "bob", ContentID: "c2", Type: core.InteractionView, Weight: 1},
		// carol 与 alice 无共同内容，不应出现在候选中
		core.Interaction{UserID: "carol", ContentID: "c9", Type: core.InteractionPurchase, Weight: 10},
	)
	s := &UserSimilarity{Interactions: interactions}

	got, err := s.FindSimilarUsers(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FindSimilarUsers() returned %d entries, want 1", len(got))
	}
	if got[0].ID != "bob" {
		t.Errorf("most similar user = %q, want %q", got[0].ID, "bob")
	}
	if got[0].Similarity < 0.99 {
		t.Errorf("similarity = %v, want ~1", got[0].Similarity)
	}
}

func TestFindSimilarUsersEmptyHistory(t *testing.T) {
	s := &UserSimilarity{Interactions: newFakeInteractions()}
	got, err := s.FindSimilarUsers(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result for user without history, got %v", got)
	}
}

func TestFindSimilarUsersThreshold(t *testing.T) {
	// alice 和 bob 在共同维度上方向相反程度有限，用高阈值把 bob 挡掉
	interactions := newFakeInteractions(
		core.Interaction{UserID: "alice", ContentID: "c1", Weight: 10},
		core.Interaction{UserID: "alice", ContentID: "c2", Weight: 1},
		core.Interaction{UserID: "bob", ContentID: "c1", Weight: 1},
		core.Interaction{UserID: "bob", ContentID: "c2", Weight: 10},
	)
	s := &UserSimilarity{Interactions: interactions, Threshold: 0.99}

	got, err := s.FindSimilarUsers(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected threshold to exclude bob, got %v", got)
	}
}

func TestFindSimilarContentJaccard(t *testing.T) {
	// c1 与 c2 被同两个用户交互，c3 只有一个用户
	interactions := newFakeInteractions(
		core.Interaction{UserID: "u1", ContentID: "c1", Weight: 1},
		core.Interaction{UserID: "u1", ContentID: "c2", Weight: 1},
		core.Interaction{UserID: "u2", ContentID: "c1", Weight: 1},
		core.Interaction{UserID: "u2", ContentID: "c2", Weight: 1},
		core.Interaction{UserID: "u2", ContentID: "c3", Weight: 1},
	)
	s := &ItemSimilarity{Interactions: interactions}

	got, err := s.FindSimilarContent(context.Background(), "c1", 10)
	if err != nil {
		t.Fatalf("FindSimilarContent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FindSimilarContent() returned %d entries, want 2", len(got))
	}
	if got[0].ID != "c2" {
		t.Errorf("top similar content = %q, want c2", got[0].ID)
	}
	// jaccard(c1,c2) = 2/2 = 1, jaccard(c1,c3) = 1/2
	if got[0].Similarity != 1 {
		t.Errorf("jaccard(c1,c2) = %v, want 1", got[0].Similarity)
	}
	if got[1].Similarity != 0.5 {
		t.Errorf("jaccard(c1,c3) = %v, want 0.5", got[1].Similarity)
	}
}
