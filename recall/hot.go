package recall

import (
	"context"
	"sort"
	"time"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pkg/utils"
)

// HotRecall 是兜底召回源：无历史/无个性化结果/计算失败时的保底供给。
//
// 供给优先级：
//  1. 交互热度榜（Popularity，按交互权重累计的有序集合）
//  2. 目录计数：热度分 = (views + 3×likes) / max
//  3. 全量内容都没有热度信号时退化为"最近发布"序
//
// 热度分之上叠加新鲜度加成（24 小时内 +0.2，7 天内 +0.1）。
// 可按 rctx.Options.Category 限定类目。
type HotRecall struct {
	Catalog core.CatalogStore

	// Popularity 可选的交互热度榜，榜空或读取失败时走目录计数
	Popularity core.PopularityStore

	// Now 可注入的时钟，默认 time.Now
	Now func() time.Time
}

func (r *HotRecall) Name() string { return "recall.hot" }

func (r *HotRecall) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *HotRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	category := ""
	if rctx != nil {
		category = rctx.Options.Category
	}

	if items := r.boardItems(ctx, category); len(items) > 0 {
		return items, nil
	}

	published, err := r.Catalog.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	var pool []*core.ContentFeatures
	var maxPopularity float64
	for _, f := range published {
		if category != "" && f.Category != category {
			continue
		}
		pool = append(pool, f)
		if pop := rawPopularity(f); pop > maxPopularity {
			maxPopularity = pop
		}
	}
	if len(pool) == 0 {
		return nil, nil
	}

	if maxPopularity == 0 {
		return r.recentItems(pool), nil
	}

	now := r.now()
	out := make([]*core.Item, 0, len(pool))
	for _, f := range pool {
		score := rawPopularity(f)/maxPopularity + freshnessBonus(now, f.PublishedAt)
		if score > 1 {
			score = 1
		}
		it := core.NewItem(f.ContentID)
		it.Score = score
		it.Reason = core.ReasonFallbackPopular
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}
	sortItems(out)
	return out, nil
}

// boardItems 从交互热度榜供给。分数按榜首归一化再叠加新鲜度加成；
// 榜空、读取失败或全部被类目过滤掉时返回空，由调用方走目录计数。
func (r *HotRecall) boardItems(ctx context.Context, category string) []*core.Item {
	if r.Popularity == nil {
		return nil
	}
	entries, err := r.Popularity.TopContent(ctx, 100)
	if err != nil || len(entries) == 0 {
		return nil
	}
	max := entries[0].Score
	if max <= 0 {
		return nil
	}

	now := r.now()
	out := make([]*core.Item, 0, len(entries))
	for _, en := range entries {
		f, err := r.Catalog.GetContent(ctx, en.ContentID)
		if err != nil {
			continue
		}
		if category != "" && f.Category != category {
			continue
		}
		score := en.Score/max + freshnessBonus(now, f.PublishedAt)
		if score > 1 {
			score = 1
		}
		it := core.NewItem(en.ContentID)
		it.Score = score
		it.Reason = core.ReasonFallbackPopular
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}
	sortItems(out)
	return out
}

// recentItems 在完全没有热度信号时按发布时间倒序给出保底序。
// 分数做线性衰减，仅用于保持排序语义，不参与融合。
func (r *HotRecall) recentItems(pool []*core.ContentFeatures) []*core.Item {
	sorted := make([]*core.ContentFeatures, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PublishedAt.Equal(sorted[j].PublishedAt) {
			return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
		}
		return sorted[i].ContentID < sorted[j].ContentID
	})

	out := make([]*core.Item, 0, len(sorted))
	for i, f := range sorted {
		it := core.NewItem(f.ContentID)
		it.Score = 1 - float64(i)/float64(len(sorted))
		it.Reason = core.ReasonFallbackRecent
		it.PutLabel("recall_source", utils.Label{Value: "recent", Source: "recall"})
		out = append(out, it)
	}
	return out
}

func rawPopularity(f *core.ContentFeatures) float64 {
	return float64(f.Views) + 3*float64(f.Likes)
}

func freshnessBonus(now, publishedAt time.Time) float64 {
	if publishedAt.IsZero() {
		return 0
	}
	age := now.Sub(publishedAt)
	switch {
	case age < 24*time.Hour:
		return 0.2
	case age < 7*24*time.Hour:
		return 0.1
	default:
		return 0
	}
}
