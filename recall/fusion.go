package recall

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pipeline"
)

// FusionNode 并发执行 User-CF / Item-CF / 内容特征三路召回并做分数融合。
//
// 融合公式：
//
//	combined = user×0.6×scale + item×0.4×scale + content×w
//
// 其中 w = rctx.Options.ContentBasedWeight（内容路未启用时 w=0），
// scale = 1-w，保证三路权重之和为 1。
//
// 多路命中的内容其推荐理由按"参与的信号族"升级：
// 协同两路 → hybrid-collaborative，再叠加内容路 → hybrid-full。
type FusionNode struct {
	UserBased    Source
	ItemBased    Source
	ContentBased Source

	// UserWeight / ItemWeight 协同两路的相对权重，默认 0.6 / 0.4
	UserWeight float64
	ItemWeight float64
}

func (n *FusionNode) Name() string { return "recall.fusion" }

func (n *FusionNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *FusionNode) weights() (float64, float64) {
	u, i := n.UserWeight, n.ItemWeight
	if u <= 0 || i <= 0 {
		return 0.6, 0.4
	}
	return u, i
}

func (n *FusionNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	useContent := rctx != nil && rctx.Options.UseContentBased && n.ContentBased != nil
	contentWeight := 0.0
	if useContent {
		contentWeight = rctx.Options.ContentBasedWeight
	}
	collabScale := 1 - contentWeight

	var userItems, itemItems, contentItems []*core.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userItems, err = n.recallFrom(gctx, rctx, n.UserBased)
		return err
	})
	g.Go(func() error {
		var err error
		itemItems, err = n.recallFrom(gctx, rctx, n.ItemBased)
		return err
	})
	if useContent {
		g.Go(func() error {
			var err error
			contentItems, err = n.recallFrom(gctx, rctx, n.ContentBased)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	userWeight, itemWeight := n.weights()

	// 按 user → item → content 的顺序融合，保证同分时的确定性
	merged := make(map[string]*core.Item)
	var order []string
	fuse := func(items []*core.Item, weight float64, signal string) {
		for _, it := range items {
			if it == nil {
				continue
			}
			contribution := it.Score * weight
			existing, ok := merged[it.ID]
			if !ok {
				fusedItem := core.NewItem(it.ID)
				fusedItem.Score = contribution
				fusedItem.Reason = it.Reason
				fusedItem.Labels = it.Labels
				fusedItem.PutSignal(signal, it.Score)
				merged[it.ID] = fusedItem
				order = append(order, it.ID)
				continue
			}
			existing.Score += contribution
			existing.Reason = core.EscalateReason(existing.Reason, it.Reason)
			existing.PutSignal(signal, it.Score)
			for key, lbl := range it.Labels {
				existing.PutLabel(key, lbl)
			}
		}
	}
	fuse(userItems, userWeight*collabScale, "user_score")
	fuse(itemItems, itemWeight*collabScale, "item_score")
	fuse(contentItems, contentWeight, "content_score")

	out := make([]*core.Item, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// recallFrom 执行单路召回；路内失败降级为空结果，不拖垮整次融合。
func (n *FusionNode) recallFrom(
	ctx context.Context,
	rctx *core.RecommendContext,
	source Source,
) ([]*core.Item, error) {
	if source == nil {
		return nil, nil
	}
	items, err := source.Recall(ctx, rctx)
	if err != nil {
		if core.IsInvalidInput(err) {
			return nil, err
		}
		return nil, nil
	}
	return items, nil
}
