package recall

import (
	"context"
	"strings"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pkg/utils"
	"github.com/mintwave/recsys/similarity"
)

// ContentBasedRecall 是内容特征召回源。
//
// 先用交互历史合成用户画像（ProfileBuilder），再对全量已发布内容
// 逐个计算特征相似度，过阈值的进入候选。命中的特征写入
// matched_features 标签，供展示层做"为什么推荐给你"。
type ContentBasedRecall struct {
	Profiles   *similarity.ProfileBuilder
	Similarity *similarity.ContentSimilarity
	Catalog    core.CatalogStore

	// Threshold 相似度保留阈值，默认 0.1
	Threshold float64
}

func (r *ContentBasedRecall) Name() string { return "recall.content_based" }

func (r *ContentBasedRecall) threshold() float64 {
	if r.Threshold > 0 {
		return r.Threshold
	}
	return 0.1
}

func (r *ContentBasedRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Profiles == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	profile, _, err := r.Profiles.Build(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	interactions, err := r.Profiles.Interactions.GetUserInteractions(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	seen := core.VectorOf(interactions)

	published, err := r.Catalog.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	sim := r.Similarity
	if sim == nil {
		sim = similarity.NewContentSimilarity()
	}

	var out []*core.Item
	for _, candidate := range published {
		if _, ok := seen[candidate.ContentID]; ok {
			continue
		}
		score, matched := sim.Similarity(profile, candidate)
		if score < r.threshold() {
			continue
		}
		it := core.NewItem(candidate.ContentID)
		it.Score = score // 特征相似度本身就在 [0,1]，无需再归一化
		it.Reason = core.ReasonContentBased
		it.PutLabel("recall_source", utils.Label{Value: "content_based", Source: "recall"})
		if len(matched) > 0 {
			it.PutLabel("matched_features", utils.Label{
				Value:  strings.Join(matched, "|"),
				Source: "recall",
			})
		}
		out = append(out, it)
	}

	sortItems(out)
	return out, nil
}
