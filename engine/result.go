package engine

import (
	"encoding/json"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/monitor"
	"github.com/mintwave/recsys/pkg/utils"
)

// stageStatus 是编排各阶段（缓存/计算）的显式结果，
// 区分"没有产出"（Miss，正常转下一阶段）与"执行失败"（Failed，记日志后转下一阶段）。
type stageStatus int

const (
	stageHit stageStatus = iota
	stageMiss
	stageFailed
)

type stageResult struct {
	status stageStatus
	items  []*core.Item
	err    error
}

func hit(items []*core.Item) stageResult { return stageResult{status: stageHit, items: items} }
func miss() stageResult                  { return stageResult{status: stageMiss} }
func failed(err error) stageResult       { return stageResult{status: stageFailed, err: err} }

// Result 是一次推荐请求的完整返回。
type Result struct {
	Items  []*core.Item   `json:"items"`
	Group  string         `json:"group"`  // 实验分组
	Source monitor.Source `json:"source"` // cache / computed / fallback
}

// cachedItem 是结果缓存中的序列化形态。
type cachedItem struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Reason  core.Reason            `json:"reason"`
	Meta    map[string]any         `json:"meta,omitempty"`
	Signals map[string]float64     `json:"signals,omitempty"`
	Labels  map[string]utils.Label `json:"labels,omitempty"`
}

func marshalItems(items []*core.Item) ([]byte, error) {
	cached := make([]cachedItem, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		cached = append(cached, cachedItem{
			ID:      it.ID,
			Score:   it.Score,
			Reason:  it.Reason,
			Meta:    it.Meta,
			Signals: it.Signals,
			Labels:  it.Labels,
		})
	}
	return json.Marshal(cached)
}

func unmarshalItems(data []byte) ([]*core.Item, error) {
	var cached []cachedItem
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	items := make([]*core.Item, 0, len(cached))
	for _, c := range cached {
		it := core.NewItem(c.ID)
		it.Score = c.Score
		it.Reason = c.Reason
		if c.Meta != nil {
			it.Meta = c.Meta
		}
		if c.Signals != nil {
			it.Signals = c.Signals
		}
		if c.Labels != nil {
			it.Labels = c.Labels
		}
		items = append(items, it)
	}
	return items, nil
}
