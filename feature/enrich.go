package feature

import (
	"context"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pipeline"
)

// EnrichNode 是后处理 Node：从内容目录补充展示层需要的元信息
// （标题/类目/创作者/文件类型）。目录缺失条目时省略元信息而非失败。
type EnrichNode struct {
	Catalog core.CatalogStore
}

func (n *EnrichNode) Name() string { return "feature.enrich" }

func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Catalog == nil {
		return items, nil
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		f, err := n.Catalog.GetContent(ctx, it.ID)
		if err != nil {
			continue
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any, 4)
		}
		it.Meta["title"] = f.Title
		it.Meta["category"] = f.Category
		it.Meta["creator_address"] = f.CreatorAddress
		it.Meta["file_type"] = f.FileType
	}
	return items, nil
}
