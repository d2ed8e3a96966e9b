package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pipeline"
	"github.com/mintwave/recsys/pkg/utils"
)

// PenaltyWeights 是多样性惩罚各维度的权重。
type PenaltyWeights struct {
	Category     float64 // 与已选内容同类目的比例
	Creator      float64 // 与已选内容同创作者的比例
	Tags         float64 // 与已选标签集合的重叠度
	ReasonFamily float64 // 与已选内容同推荐理由族的比例
}

// DefaultPenaltyWeights 返回默认惩罚权重。
func DefaultPenaltyWeights() PenaltyWeights {
	return PenaltyWeights{
		Category:     0.3,
		Creator:      0.2,
		Tags:         0.3,
		ReasonFamily: 0.2,
	}
}

// DiversityNode 贪心多样性重排：按分数降序逐个挑选，每个候选相对
// 已选集合计算重复度惩罚，adjusted = score × (1 - penalty × factor)。
// 惩罚后分数跌到 0 及以下的候选直接丢弃。
//
// factor 取 rctx.Options.DiversityFactor，为 0 时本节点只透传。
type DiversityNode struct {
	Catalog core.CatalogStore
	Weights PenaltyWeights
}

func (n *DiversityNode) Name() string { return "rerank.diversity" }

func (n *DiversityNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiversityNode) weights() PenaltyWeights {
	w := n.Weights
	if w.Category == 0 && w.Creator == 0 && w.Tags == 0 && w.ReasonFamily == 0 {
		return DefaultPenaltyWeights()
	}
	return w
}

func (n *DiversityNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	factor := 0.0
	if rctx != nil {
		factor = rctx.Options.DiversityFactor
	}
	if factor <= 0 {
		return items, nil
	}

	// 目录特征缺失时该候选只受理由族惩罚
	features := make(map[string]*core.ContentFeatures, len(items))
	if n.Catalog != nil {
		for _, it := range items {
			if it == nil {
				continue
			}
			if f, err := n.Catalog.GetContent(ctx, it.ID); err == nil {
				features[it.ID] = f
			}
		}
	}

	candidates := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			candidates = append(candidates, it)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	w := n.weights()
	var selected []*core.Item
	selectedCategories := make(map[string]int)
	selectedCreators := make(map[string]int)
	selectedTags := make(map[string]struct{})
	selectedFamilies := make(map[string]int)

	for _, it := range candidates {
		penalty := 0.0
		if len(selected) > 0 {
			total := float64(len(selected))
			f := features[it.ID]
			if f != nil {
				if f.Category != "" {
					penalty += w.Category * float64(selectedCategories[f.Category]) / total
				}
				if f.CreatorAddress != "" {
					penalty += w.Creator * float64(selectedCreators[f.CreatorAddress]) / total
				}
				penalty += w.Tags * tagOverlapRatio(f.Tags, selectedTags)
			}
			penalty += w.ReasonFamily * float64(selectedFamilies[it.Reason.Family()]) / total
		}

		adjusted := it.Score * (1 - penalty*factor)
		if adjusted <= 0 {
			continue
		}
		it.Score = adjusted
		if penalty > 0 {
			it.PutLabel("diversity_penalty", utils.Label{
				Value:  fmt.Sprintf("%.4f", penalty*factor),
				Source: "rerank",
			})
		}

		selected = append(selected, it)
		if f := features[it.ID]; f != nil {
			if f.Category != "" {
				selectedCategories[f.Category]++
			}
			if f.CreatorAddress != "" {
				selectedCreators[f.CreatorAddress]++
			}
			for _, t := range f.Tags {
				selectedTags[t] = struct{}{}
			}
		}
		selectedFamilies[it.Reason.Family()]++
	}

	// 惩罚可能打乱序，最终再按调整后分数稳定排序
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Score > selected[j].Score
	})
	return selected, nil
}

// tagOverlapRatio 返回候选标签落在已选标签集合中的比例。
func tagOverlapRatio(tags []string, selected map[string]struct{}) float64 {
	if len(tags) == 0 || len(selected) == 0 {
		return 0
	}
	hit := 0
	for _, t := range tags {
		if _, ok := selected[t]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(tags))
}
