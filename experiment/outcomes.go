package experiment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mintwave/recsys/core"
)

// OutcomeType 是实验观测事件的类型。
type OutcomeType string

const (
	OutcomeImpression OutcomeType = "impression" // 推荐曝光
	OutcomeClick      OutcomeType = "click"      // 点击进入详情
	OutcomeConversion OutcomeType = "conversion" // 加购等转化动作
	OutcomePurchase   OutcomeType = "purchase"   // 最终购买
)

// Outcome 是一条实验观测事件。
type Outcome struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Group     string      `json:"group"`
	ContentID string      `json:"content_id"`
	Type      OutcomeType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// GroupStats 是单个分组的聚合效果。
type GroupStats struct {
	Group          string  `json:"group"`
	Impressions    int     `json:"impressions"`
	Clicks         int     `json:"clicks"`
	Conversions    int     `json:"conversions"`
	Purchases      int     `json:"purchases"`
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate"`
	PurchaseRate   float64 `json:"purchase_rate"`

	// Score 综合得分：0.4×CTR + 0.4×转化率 + 0.2×购买率
	Score float64 `json:"score"`
}

// OutcomeRecorder 把实验事件按分组写入有界列表并产出聚合统计。
type OutcomeRecorder struct {
	Store core.KeyValueStore

	// KeyPrefix 列表 key 前缀，默认 "exp:outcomes"
	KeyPrefix string

	// MaxPerGroup 每个分组保留的事件数，默认 10000
	MaxPerGroup int

	// Now 可注入的时钟，默认 time.Now
	Now func() time.Time
}

func (r *OutcomeRecorder) keyPrefix() string {
	if r.KeyPrefix != "" {
		return r.KeyPrefix
	}
	return "exp:outcomes"
}

func (r *OutcomeRecorder) maxPerGroup() int {
	if r.MaxPerGroup > 0 {
		return r.MaxPerGroup
	}
	return 10000
}

func (r *OutcomeRecorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *OutcomeRecorder) groupKey(group string) string {
	return r.keyPrefix() + ":" + group
}

// Record 记录一条事件。ID 为空时自动生成。
func (r *OutcomeRecorder) Record(ctx context.Context, outcome Outcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.NewString()
	}
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = r.now()
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	key := r.groupKey(outcome.Group)
	if err := r.Store.LPush(ctx, key, data); err != nil {
		return err
	}
	return r.Store.LTrim(ctx, key, 0, int64(r.maxPerGroup())-1)
}

// Stats 返回单个分组的聚合效果。
func (r *OutcomeRecorder) Stats(ctx context.Context, group string) (GroupStats, error) {
	stats := GroupStats{Group: group}

	raw, err := r.Store.LRange(ctx, r.groupKey(group), 0, int64(r.maxPerGroup())-1)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return stats, nil
		}
		return stats, err
	}

	for _, entry := range raw {
		var o Outcome
		if err := json.Unmarshal(entry, &o); err != nil {
			continue // 坏记录不影响统计
		}
		switch o.Type {
		case OutcomeImpression:
			stats.Impressions++
		case OutcomeClick:
			stats.Clicks++
		case OutcomeConversion:
			stats.Conversions++
		case OutcomePurchase:
			stats.Purchases++
		}
	}

	if stats.Impressions > 0 {
		total := float64(stats.Impressions)
		stats.CTR = float64(stats.Clicks) / total
		stats.ConversionRate = float64(stats.Conversions) / total
		stats.PurchaseRate = float64(stats.Purchases) / total
		stats.Score = 0.4*stats.CTR + 0.4*stats.ConversionRate + 0.2*stats.PurchaseRate
	}
	return stats, nil
}

// Winner 返回综合得分最高的分组及各组明细。无任何曝光时返回空串。
func (r *OutcomeRecorder) Winner(ctx context.Context) (string, []GroupStats, error) {
	all := make([]GroupStats, 0, len(Groups()))
	winner := ""
	best := -1.0
	for _, group := range Groups() {
		stats, err := r.Stats(ctx, group)
		if err != nil {
			return "", nil, err
		}
		all = append(all, stats)
		if stats.Impressions > 0 && stats.Score > best {
			best = stats.Score
			winner = group
		}
	}
	return winner, all, nil
}
