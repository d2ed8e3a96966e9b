package filter

import (
	"context"
	"sync"

	"github.com/mintwave/recsys/core"
)

// ExclusionFilter 按请求配置排除用户已看/已购的内容。
// 排除集合在首次检查时惰性加载并缓存到本次请求的生命周期内；
// 加载失败按"不排除"处理，宁可重复推荐也不让请求失败。
type ExclusionFilter struct {
	Interactions core.InteractionStore
	Ledger       core.LedgerStore

	once      sync.Once
	viewed    map[string]struct{}
	purchased map[string]struct{}
}

// NewExclusionFilter 创建排除过滤器。
func NewExclusionFilter(interactions core.InteractionStore, ledger core.LedgerStore) *ExclusionFilter {
	return &ExclusionFilter{Interactions: interactions, Ledger: ledger}
}

func (f *ExclusionFilter) Name() string { return "filter.exclusion" }

func (f *ExclusionFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if rctx == nil || item == nil {
		return false, nil
	}
	opts := rctx.Options
	if !opts.ExcludeViewed && !opts.ExcludePurchased {
		return false, nil
	}

	f.once.Do(func() { f.load(ctx, rctx.UserID, opts) })

	if opts.ExcludeViewed {
		if _, ok := f.viewed[item.ID]; ok {
			return true, nil
		}
	}
	if opts.ExcludePurchased {
		if _, ok := f.purchased[item.ID]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *ExclusionFilter) load(ctx context.Context, userID string, opts core.Options) {
	f.viewed = make(map[string]struct{})
	f.purchased = make(map[string]struct{})

	if opts.ExcludeViewed && f.Interactions != nil {
		if interactions, err := f.Interactions.GetUserInteractions(ctx, userID); err == nil {
			for _, in := range interactions {
				f.viewed[in.ContentID] = struct{}{}
			}
		}
	}
	if opts.ExcludePurchased && f.Ledger != nil {
		if purchases, err := f.Ledger.GetPurchases(ctx, userID); err == nil {
			for _, id := range purchases {
				f.purchased[id] = struct{}{}
			}
		}
	}
}
