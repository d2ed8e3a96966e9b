// Package similarity 实现三类相似度：用户-用户（余弦）、内容-内容（共现 Jaccard）、
// 画像-内容（加权特征匹配）。前两类结果对称并带 TTL 缓存；第三类是有向的
//（固定画像对任意内容），不要求对称。
package similarity

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/mintwave/recsys/core"
)

// Entry 是一条相似度结果：候选 ID 与 [0,1] 区间的相似度。
type Entry struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// cosineOverShared 计算两个稀疏向量在共同维度上的余弦相似度。
// 只比较共同交互过的维度（与全量维度余弦相比，对行为尺度差异更稳健）。
func cosineOverShared(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			continue
		}
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SortEntries 按相似度降序稳定排序并截断。
func SortEntries(entries []Entry, limit int) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Similarity > entries[j].Similarity
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// cachedEntries 尝试从缓存读取相似度表；缓存不可用按 miss 处理。
func cachedEntries(ctx context.Context, cache core.Store, key string) ([]Entry, bool) {
	if cache == nil {
		return nil, false
	}
	data, err := cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// storeEntries 把相似度表写入缓存；写入失败静默忽略（幂等重算可接受）。
func storeEntries(ctx context.Context, cache core.Store, key string, entries []Entry, ttl time.Duration) {
	if cache == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	_ = cache.Set(ctx, key, data, int(ttl/time.Second))
}
