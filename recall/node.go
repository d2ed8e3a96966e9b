package recall

import (
	"context"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pipeline"
)

// SourceNode 把单个 Source 适配成 Pipeline Node（单路召回，不融合）。
type SourceNode struct {
	Source Source
}

func (n *SourceNode) Name() string {
	if n.Source != nil {
		return n.Source.Name()
	}
	return "recall.source"
}

func (n *SourceNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *SourceNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if n.Source == nil {
		return nil, nil
	}
	return n.Source.Recall(ctx, rctx)
}
