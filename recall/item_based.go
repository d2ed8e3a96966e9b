package recall

import (
	"context"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/similarity"
)

// ItemBasedRecall 是基于内容共现的协同过滤召回源（Item-CF, i2i）。
//
// 对目标用户交互过的每个内容做 i2i 扩散：
// score[候选] += 交互权重 × Jaccard 相似度，已交互内容不再出现。
type ItemBasedRecall struct {
	Items        *similarity.ItemSimilarity
	Interactions core.InteractionStore

	// TopKSimilarContent 每个种子内容扩散的相似内容数，默认 10
	TopKSimilarContent int

	// ScoreNorm 分数归一化除数，默认 10
	ScoreNorm float64
}

func (r *ItemBasedRecall) Name() string { return "recall.item_based" }

func (r *ItemBasedRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Items == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	interactions, err := r.Interactions.GetUserInteractions(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	seed := core.VectorOf(interactions)
	if len(seed) == 0 {
		return nil, nil
	}

	topK := r.TopKSimilarContent
	if topK <= 0 {
		topK = 10
	}

	scores := make(map[string]float64)
	for contentID, weight := range seed {
		similarContent, err := r.Items.FindSimilarContent(ctx, contentID, topK)
		if err != nil {
			continue // 单个种子失败不影响整体
		}
		for _, sc := range similarContent {
			if _, ok := seed[sc.ID]; ok {
				continue
			}
			scores[sc.ID] += weight * sc.Similarity
		}
	}

	return buildItems(scores, r.ScoreNorm, core.ReasonItemBased, "item_based"), nil
}
