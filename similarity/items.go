package similarity

import (
	"context"
	"fmt"
	"time"

	"github.com/mintwave/recsys/core"
)

// ItemSimilarity 计算内容-内容共现相似度（Item-CF 的 i2i 步骤）。
//
// 算法流程：
//  1. 取出与目标内容交互过的用户集合 A
//  2. 沿这些用户的其他交互统计候选内容
//  3. 对每个候选独立查询其用户集合 B，Jaccard = |A∩B| / |A∪B|
//  4. 阈值过滤 → 降序 → 截断 → 缓存
//
// "被同一批用户喜欢的内容相互相似"——工业级召回的常青树。
type ItemSimilarity struct {
	Interactions core.InteractionStore

	// Cache 可选的相似度表缓存
	Cache core.Store

	// Threshold 保留阈值，默认 0.1
	Threshold float64

	// CacheTTL 缓存时长，默认 1 小时
	CacheTTL time.Duration
}

func (s *ItemSimilarity) threshold() float64 {
	if s.Threshold > 0 {
		return s.Threshold
	}
	return 0.1
}

func (s *ItemSimilarity) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return time.Hour
}

// FindSimilarContent 返回与 contentID 共现最相似的内容列表，按相似度降序。
func (s *ItemSimilarity) FindSimilarContent(ctx context.Context, contentID string, limit int) ([]Entry, error) {
	cacheKey := fmt.Sprintf("sim:content:%s:%d", contentID, limit)
	if entries, ok := cachedEntries(ctx, s.Cache, cacheKey); ok {
		return entries, nil
	}

	users, err := s.usersOf(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	// 沿共同用户收集候选内容
	candidates := make(map[string]struct{})
	for userID := range users {
		interactions, err := s.Interactions.GetUserInteractions(ctx, userID)
		if err != nil {
			continue
		}
		for _, in := range interactions {
			if in.ContentID != contentID {
				candidates[in.ContentID] = struct{}{}
			}
		}
	}

	entries := make([]Entry, 0, len(candidates))
	for otherID := range candidates {
		otherUsers, err := s.usersOf(ctx, otherID)
		if err != nil || len(otherUsers) == 0 {
			continue
		}

		intersection := 0
		for userID := range users {
			if _, ok := otherUsers[userID]; ok {
				intersection++
			}
		}
		union := len(users) + len(otherUsers) - intersection
		if union == 0 {
			continue
		}
		sim := float64(intersection) / float64(union)
		if sim >= s.threshold() {
			entries = append(entries, Entry{ID: otherID, Similarity: sim})
		}
	}

	entries = SortEntries(entries, limit)
	storeEntries(ctx, s.Cache, cacheKey, entries, s.cacheTTL())
	return entries, nil
}

func (s *ItemSimilarity) usersOf(ctx context.Context, contentID string) (map[string]float64, error) {
	interactions, err := s.Interactions.GetContentInteractions(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return core.UsersOf(interactions), nil
}
