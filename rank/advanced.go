package rank

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pipeline"
)

// SignalWeights 是多信号重排各分量的权重。
// 基础推荐分占剩余权重（1 - 各信号之和）。
type SignalWeights struct {
	Popularity float64 // 批内归一化热度
	Freshness  float64 // 发布时间指数衰减
	Engagement float64 // 点赞率
	Reputation float64 // 创作者资历
}

// DefaultSignalWeights 返回默认信号权重。
func DefaultSignalWeights() SignalWeights {
	return SignalWeights{
		Popularity: 0.15,
		Freshness:  0.10,
		Engagement: 0.10,
		Reputation: 0.05,
	}
}

func (w SignalWeights) base() float64 {
	return 1 - w.Popularity - w.Freshness - w.Engagement - w.Reputation
}

// AdvancedRankNode 在融合分之上叠加目录侧信号做线性重排。
// 各信号写入 Item.Signals，供观测和离线分析。
// 目录缺失条目时仅保留基础分，不视为错误。
type AdvancedRankNode struct {
	Catalog core.CatalogStore
	Weights SignalWeights

	// FreshnessHalfLife 新鲜度半衰期，默认 7 天
	FreshnessHalfLife time.Duration

	// Now 可注入的时钟，默认 time.Now
	Now func() time.Time
}

func (n *AdvancedRankNode) Name() string { return "rank.advanced" }

func (n *AdvancedRankNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *AdvancedRankNode) weights() SignalWeights {
	w := n.Weights
	if w.Popularity == 0 && w.Freshness == 0 && w.Engagement == 0 && w.Reputation == 0 {
		return DefaultSignalWeights()
	}
	return w
}

func (n *AdvancedRankNode) halfLife() time.Duration {
	if n.FreshnessHalfLife > 0 {
		return n.FreshnessHalfLife
	}
	return 7 * 24 * time.Hour
}

func (n *AdvancedRankNode) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *AdvancedRankNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || n.Catalog == nil {
		return items, nil
	}

	features := make(map[string]*core.ContentFeatures, len(items))
	var maxPopularity float64
	for _, it := range items {
		if it == nil {
			continue
		}
		f, err := n.Catalog.GetContent(ctx, it.ID)
		if err != nil {
			continue // 缺目录条目：只用基础分
		}
		features[it.ID] = f
		if pop := float64(f.Views) + 3*float64(f.Likes); pop > maxPopularity {
			maxPopularity = pop
		}
	}

	w := n.weights()
	now := n.now()
	for _, it := range items {
		if it == nil {
			continue
		}
		base := it.Score
		it.PutSignal("base", base)

		f, ok := features[it.ID]
		if !ok {
			it.Score = base * w.base()
			continue
		}

		popularity := 0.0
		if maxPopularity > 0 {
			popularity = (float64(f.Views) + 3*float64(f.Likes)) / maxPopularity
		}
		freshness := n.freshness(now, f.PublishedAt)
		engagement := likeRate(f)
		reputation := creatorReputation(now, f.CreatorSince)

		it.PutSignal("popularity", popularity)
		it.PutSignal("freshness", freshness)
		it.PutSignal("engagement", engagement)
		it.PutSignal("reputation", reputation)

		it.Score = base*w.base() +
			popularity*w.Popularity +
			freshness*w.Freshness +
			engagement*w.Engagement +
			reputation*w.Reputation
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// freshness 指数衰减：发布当天 ≈1，每过一个半衰期折半。
func (n *AdvancedRankNode) freshness(now, publishedAt time.Time) float64 {
	if publishedAt.IsZero() || publishedAt.After(now) {
		return 0
	}
	age := now.Sub(publishedAt)
	return math.Exp2(-float64(age) / float64(n.halfLife()))
}

// likeRate 点赞率，截断到 [0,1]。无曝光视为 0。
func likeRate(f *core.ContentFeatures) float64 {
	if f.Views <= 0 {
		return 0
	}
	rate := float64(f.Likes) / float64(f.Views)
	if rate > 1 {
		return 1
	}
	return rate
}

// creatorReputation 创作者资历：注册满一年记满分。
func creatorReputation(now time.Time, since time.Time) float64 {
	if since.IsZero() || since.After(now) {
		return 0
	}
	days := now.Sub(since).Hours() / 24
	if days >= 365 {
		return 1
	}
	return days / 365
}
