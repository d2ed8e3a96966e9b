package core

import "github.com/mintwave/recsys/pkg/utils"

// Item 是推荐链路中的统一承载结构：分数、推荐理由、元信息、信号拆解、标签。
// Reason 是封闭的理由类型（见 reason.go）；Signals 记录各排序信号的贡献，
// Labels 用于解释与策略驱动。
type Item struct {
	ID      string // 内容 token ID
	Score   float64
	Reason  Reason
	Meta    map[string]any     // 展示元信息：title / category / creator
	Signals map[string]float64 // 排序信号拆解：base / popularity / freshness ...
	Labels  map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:      id,
		Score:   0,
		Meta:    make(map[string]any),
		Signals: make(map[string]float64),
		Labels:  make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutSignal 记录一个排序信号的贡献值。
func (it *Item) PutSignal(name string, value float64) {
	if it.Signals == nil {
		it.Signals = make(map[string]float64)
	}
	it.Signals[name] = value
}
