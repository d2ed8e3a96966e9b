package recall

import (
	"context"
	"sort"

	"github.com/mintwave/recsys/core"
)

// Source 表示一个可复用的召回源（User-CF/Item-CF/内容/兜底）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
//
// 约定：空交互历史返回空序列，不报错——这是触发兜底的信号。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// sortItems 按分数降序排列，同分按 ID 字典序保证确定性。
func sortItems(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// normalize 把原始累计分数除以经验常数归一化并截断到 [0,1]。
func normalize(score, norm float64) float64 {
	if norm <= 0 {
		norm = 10
	}
	normalized := score / norm
	if normalized > 1 {
		return 1
	}
	if normalized < 0 {
		return 0
	}
	return normalized
}
