package recall

import (
	"context"
	"sort"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pkg/utils"
	"github.com/mintwave/recsys/similarity"
)

// UserBasedRecall 是基于用户的协同过滤召回源（User-CF, u2i）。
//
// 核心思想："兴趣相似的用户，喜欢相似的内容"
//
// 算法流程：
//  1. 构建目标用户行为向量
//  2. 找 TopK 相似用户（similarity.UserSimilarity）
//  3. 把相似用户的加权交互按相似度折算给目标用户，按内容累加
//  4. 归一化到 [0,1]，跳过目标用户已交互的内容
type UserBasedRecall struct {
	Users        *similarity.UserSimilarity
	Interactions core.InteractionStore

	// TopKSimilarUsers 计算时考虑的相似用户数，默认 10
	TopKSimilarUsers int

	// ScoreNorm 分数归一化除数，默认 10（经验常数，可调）
	ScoreNorm float64
}

func (r *UserBasedRecall) Name() string { return "recall.user_based" }

func (r *UserBasedRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Users == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	interactions, err := r.Interactions.GetUserInteractions(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	seen := core.VectorOf(interactions)
	if len(seen) == 0 {
		return nil, nil
	}

	topK := r.TopKSimilarUsers
	if topK <= 0 {
		topK = 10
	}

	similarUsers, err := r.Users.FindSimilarUsers(ctx, rctx.UserID, topK)
	if err != nil {
		return nil, err
	}

	// score[contentID] = Σ(similarity × 对方权重)
	scores := make(map[string]float64)
	for _, su := range similarUsers {
		otherInteractions, err := r.Interactions.GetUserInteractions(ctx, su.ID)
		if err != nil {
			continue
		}
		for contentID, weight := range core.VectorOf(otherInteractions) {
			if _, ok := seen[contentID]; ok {
				continue
			}
			scores[contentID] += su.Similarity * weight
		}
	}

	return buildItems(scores, r.ScoreNorm, core.ReasonUserBased, "user_based"), nil
}

// buildItems 把累计分数表转为归一化的候选列表（降序，ID 平局按字典序保证确定性）。
func buildItems(scores map[string]float64, norm float64, reason core.Reason, source string) []*core.Item {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.Score = normalize(scores[id], norm)
		it.Reason = reason
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
		out = append(out, it)
	}
	return out
}
