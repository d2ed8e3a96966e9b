package similarity

import (
	"context"
	"fmt"
	"time"

	"github.com/mintwave/recsys/core"
)

// UserSimilarity 计算用户-用户相似度（User-CF 的 u2u 步骤）。
//
// 算法流程：
//  1. 构建目标用户的行为向量（contentID → 累计权重）
//  2. 候选用户限定为与目标用户共同交互过至少一个内容的用户（避免全量叉乘）
//  3. 在共同维度上计算余弦相似度
//  4. 阈值过滤 → 降序 → 截断 → 缓存（TTL 1 小时）
//
// 空向量输入产生空输出，不报错。
type UserSimilarity struct {
	Interactions core.InteractionStore

	// Cache 可选的相似度表缓存
	Cache core.Store

	// Threshold 保留阈值，默认 0.1
	Threshold float64

	// CacheTTL 缓存时长，默认 1 小时
	CacheTTL time.Duration
}

func (s *UserSimilarity) threshold() float64 {
	if s.Threshold > 0 {
		return s.Threshold
	}
	return 0.1
}

func (s *UserSimilarity) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return time.Hour
}

// FindSimilarUsers 返回与 userID 最相似的用户列表，按相似度降序。
func (s *UserSimilarity) FindSimilarUsers(ctx context.Context, userID string, limit int) ([]Entry, error) {
	cacheKey := fmt.Sprintf("sim:user:%s:%d", userID, limit)
	if entries, ok := cachedEntries(ctx, s.Cache, cacheKey); ok {
		return entries, nil
	}

	target, err := s.vectorOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(target) == 0 {
		return nil, nil
	}

	// 候选限定：与目标用户共同交互过内容的用户
	candidates := make(map[string]struct{})
	for contentID := range target {
		interactions, err := s.Interactions.GetContentInteractions(ctx, contentID)
		if err != nil {
			continue // 上游局部不可用：跳过该维度
		}
		for _, in := range interactions {
			if in.UserID != userID {
				candidates[in.UserID] = struct{}{}
			}
		}
	}

	entries := make([]Entry, 0, len(candidates))
	for otherID := range candidates {
		other, err := s.vectorOf(ctx, otherID)
		if err != nil || len(other) == 0 {
			continue
		}
		sim := cosineOverShared(target, other)
		if sim >= s.threshold() {
			entries = append(entries, Entry{ID: otherID, Similarity: sim})
		}
	}

	entries = SortEntries(entries, limit)
	storeEntries(ctx, s.Cache, cacheKey, entries, s.cacheTTL())
	return entries, nil
}

func (s *UserSimilarity) vectorOf(ctx context.Context, userID string) (map[string]float64, error) {
	interactions, err := s.Interactions.GetUserInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.VectorOf(interactions), nil
}
