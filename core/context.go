package core

import "github.com/mintwave/recsys/pkg/utils"

// RecommendContext 承载用户/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 用户钱包地址

	// Options 本次请求的配置（已校验）
	Options Options

	// Group 实验分组（为空表示未分组）
	Group string

	// Labels 是用户级标签，可驱动 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（设备、场景等动态属性）
	Params map[string]any
}

// NewRecommendContext 创建带默认配置的请求上下文。
func NewRecommendContext(userID string) *RecommendContext {
	return &RecommendContext{
		UserID:  userID,
		Options: DefaultOptions(),
	}
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
