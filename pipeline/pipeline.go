package pipeline

import (
	"context"

	"github.com/mintwave/recsys/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：
// 召回 → 过滤 → 排序 → 重排 → 后处理。引擎按实验分组装配不同的链。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
