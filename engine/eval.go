package engine

import (
	"context"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/experiment"
	"github.com/mintwave/recsys/filter"
	"github.com/mintwave/recsys/pipeline"
	"github.com/mintwave/recsys/recall"
	"github.com/mintwave/recsys/rerank"
	"github.com/mintwave/recsys/similarity"
)

// holdoutInteractions 包装交互日志，对被评估用户隐藏指定内容的全部
// 交互。这样被预测的购买不会出现在输入历史里，召回侧才有机会把它
// 重新找回来。其他用户的视图不受影响。
type holdoutInteractions struct {
	core.InteractionStore

	userID string
	hidden map[string]struct{}
}

func (h *holdoutInteractions) GetUserInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	interactions, err := h.InteractionStore.GetUserInteractions(ctx, userID)
	if err != nil || userID != h.userID {
		return interactions, err
	}
	out := make([]core.Interaction, 0, len(interactions))
	for _, in := range interactions {
		if _, ok := h.hidden[in.ContentID]; ok {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (h *holdoutInteractions) GetContentInteractions(ctx context.Context, contentID string) ([]core.Interaction, error) {
	interactions, err := h.InteractionStore.GetContentInteractions(ctx, contentID)
	if err != nil {
		return interactions, err
	}
	if _, ok := h.hidden[contentID]; !ok {
		return interactions, nil
	}
	out := make([]core.Interaction, 0, len(interactions))
	for _, in := range interactions {
		if in.UserID == h.userID {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// evalCompute 在留出 hidden 中的内容后重建融合链路并执行一次计算。
// 相似度引擎不接缓存，避免全量历史下算好的相似度表泄漏回评估。
func (e *Engine) evalCompute(ctx context.Context, userID string, hidden map[string]struct{}, opts core.Options) stageResult {
	held := &holdoutInteractions{
		InteractionStore: e.deps.Interactions,
		userID:           userID,
		hidden:           hidden,
	}
	users := &similarity.UserSimilarity{Interactions: held, Threshold: e.cfg.SimilarityThreshold}
	items := &similarity.ItemSimilarity{Interactions: held, Threshold: e.cfg.SimilarityThreshold}
	profiles := &similarity.ProfileBuilder{Interactions: held, Catalog: e.deps.Catalog}

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.FusionNode{
			UserBased: &recall.UserBasedRecall{
				Users:        users,
				Interactions: held,
				ScoreNorm:    e.cfg.ScoreNorm,
			},
			ItemBased: &recall.ItemBasedRecall{
				Items:        items,
				Interactions: held,
				ScoreNorm:    e.cfg.ScoreNorm,
			},
			ContentBased: &recall.ContentBasedRecall{
				Profiles:   profiles,
				Similarity: e.content,
				Catalog:    e.deps.Catalog,
				Threshold:  e.cfg.ContentScoreThreshold,
			},
		},
		&filter.FilterNode{Filters: []filter.Filter{
			filter.NewExclusionFilter(held, e.deps.Ledger),
		}},
		&rerank.TopNNode{},
	}}

	rctx := core.NewRecommendContext(userID)
	rctx.Options = opts
	rctx.Group = experiment.GroupHybrid

	out, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return failed(err)
	}
	if len(out) == 0 {
		return miss()
	}
	return hit(out)
}
