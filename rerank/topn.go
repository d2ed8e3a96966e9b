package rerank

import (
	"context"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pipeline"
)

// TopNNode 做最终截断：应用 rctx.Options 的 MinScore 下限与 Limit 条数上限。
// 输入假定已按分数降序。
type TopNNode struct{}

func (n *TopNNode) Name() string { return "rerank.topn" }

func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil {
		return items, nil
	}
	opts := rctx.Options

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.Score < opts.MinScore {
			continue
		}
		out = append(out, it)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}
