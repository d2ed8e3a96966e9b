package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/mintwave/recsys/core"
)

// InteractionLog 是基于 core.Store 的交互日志适配器，实现
// core.InteractionStore 与 core.LedgerStore。
//
// key 布局：
//   用户交互：{KeyPrefix}:user:{userID}   → JSON []core.Interaction
//   内容交互：{KeyPrefix}:content:{contentID}
//   活跃用户：{KeyPrefix}:users           → JSON []string
//   活跃内容：{KeyPrefix}:contents
//   购买账本：{KeyPrefix}:ledger:{userID} → JSON []string
//   热度榜：  {KeyPrefix}:board           → 有序集合 contentID → 累计权重
//
// 热度榜只在底层存储实现 core.KeyValueStore 时维护。
//
// 读取时按回看窗口过滤并按时间倒序返回；日志本身是外部系统拥有的
// 追加流，这里只提供读取视图与测试/原型用的写入辅助。
type InteractionLog struct {
	store core.Store

	KeyPrefix string

	// Lookback 回看窗口，默认 30 天
	Lookback time.Duration

	// Weights 交互类型→权重映射，写入时补全零权重记录
	Weights map[core.InteractionType]float64

	// Now 可注入的时钟（测试用）
	Now func() time.Time
}

// NewInteractionLog 创建一个交互日志适配器。
func NewInteractionLog(s core.Store, keyPrefix string) *InteractionLog {
	if keyPrefix == "" {
		keyPrefix = "ix"
	}
	return &InteractionLog{
		store:     s,
		KeyPrefix: keyPrefix,
		Lookback:  30 * 24 * time.Hour,
		Weights:   core.DefaultInteractionWeights(),
		Now:       time.Now,
	}
}

func (l *InteractionLog) Name() string { return "interaction_log" }

func (l *InteractionLog) GetUserInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	return l.readWindow(ctx, l.KeyPrefix+":user:"+userID)
}

func (l *InteractionLog) GetContentInteractions(ctx context.Context, contentID string) ([]core.Interaction, error) {
	return l.readWindow(ctx, l.KeyPrefix+":content:"+contentID)
}

func (l *InteractionLog) GetActiveUsers(ctx context.Context) ([]string, error) {
	return l.readIDs(ctx, l.KeyPrefix+":users")
}

func (l *InteractionLog) GetActiveContent(ctx context.Context) ([]string, error) {
	return l.readIDs(ctx, l.KeyPrefix+":contents")
}

// GetPurchases 实现 core.LedgerStore。账本不受回看窗口限制。
func (l *InteractionLog) GetPurchases(ctx context.Context, userID string) ([]string, error) {
	return l.readIDs(ctx, l.KeyPrefix+":ledger:"+userID)
}

func (l *InteractionLog) readWindow(ctx context.Context, key string) ([]core.Interaction, error) {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var all []core.Interaction
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	cutoff := l.Now().Add(-l.Lookback)
	out := make([]core.Interaction, 0, len(all))
	for _, in := range all {
		if in.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, in)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (l *InteractionLog) readIDs(ctx context.Context, key string) ([]string, error) {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Append 写入一条交互记录（测试/原型用；线上日志由外部系统追加）。
// 权重为零时按 Weights 表补全；purchase 同时登记到购买账本。
func (l *InteractionLog) Append(ctx context.Context, in core.Interaction) error {
	if in.Weight == 0 {
		in.Weight = l.Weights[in.Type]
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = l.Now()
	}

	if err := l.appendRecord(ctx, l.KeyPrefix+":user:"+in.UserID, in); err != nil {
		return err
	}
	if err := l.appendRecord(ctx, l.KeyPrefix+":content:"+in.ContentID, in); err != nil {
		return err
	}
	if err := l.appendID(ctx, l.KeyPrefix+":users", in.UserID); err != nil {
		return err
	}
	if err := l.appendID(ctx, l.KeyPrefix+":contents", in.ContentID); err != nil {
		return err
	}
	if in.Type == core.InteractionPurchase {
		if err := l.appendID(ctx, l.KeyPrefix+":ledger:"+in.UserID, in.ContentID); err != nil {
			return err
		}
	}
	l.bumpBoard(ctx, in)
	return nil
}

// bumpBoard 把交互权重累计进热度榜。榜单是尽力而为的派生数据，
// 维护失败不影响日志写入本身。
func (l *InteractionLog) bumpBoard(ctx context.Context, in core.Interaction) {
	kv, ok := l.store.(core.KeyValueStore)
	if !ok {
		return
	}
	key := l.KeyPrefix + ":board"
	current, err := kv.ZScore(ctx, key, in.ContentID)
	if err != nil && !core.IsStoreNotFound(err) {
		return
	}
	_ = kv.ZAdd(ctx, key, current+in.Weight, in.ContentID)
}

// TopContent 实现 core.PopularityStore：按累计交互权重降序返回内容。
// 底层存储不支持有序集合时返回空榜。
func (l *InteractionLog) TopContent(ctx context.Context, limit int) ([]core.RankedContent, error) {
	kv, ok := l.store.(core.KeyValueStore)
	if !ok {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	key := l.KeyPrefix + ":board"
	members, err := kv.ZRange(ctx, key, 0, int64(limit-1))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]core.RankedContent, 0, len(members))
	for _, m := range members {
		score, err := kv.ZScore(ctx, key, m)
		if err != nil {
			continue
		}
		out = append(out, core.RankedContent{ContentID: m, Score: score})
	}
	return out, nil
}

func (l *InteractionLog) appendRecord(ctx context.Context, key string, in core.Interaction) error {
	var all []core.Interaction
	if data, err := l.store.Get(ctx, key); err == nil {
		if err := json.Unmarshal(data, &all); err != nil {
			return err
		}
	} else if !core.IsStoreNotFound(err) {
		return err
	}
	all = append(all, in)
	data, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, key, data)
}

func (l *InteractionLog) appendID(ctx context.Context, key, id string) error {
	ids, err := l.readIDs(ctx, key)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, key, data)
}

// 确保实现领域接口
var _ core.InteractionStore = (*InteractionLog)(nil)
var _ core.LedgerStore = (*InteractionLog)(nil)
var _ core.PopularityStore = (*InteractionLog)(nil)
