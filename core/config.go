package core

import "time"

// EngineConfig 汇总引擎的可调常数。
// 分数归一化除数、相似度阈值等来自线上调参经验，作为配置而非硬编码语义。
type EngineConfig struct {
	// ScoreNorm 召回分数归一化除数（经验常数，结果截断到 [0,1]）
	ScoreNorm float64

	// SimilarityThreshold 用户/物品相似度保留阈值
	SimilarityThreshold float64

	// ContentScoreThreshold 内容召回的最低特征相似度
	ContentScoreThreshold float64

	// LookbackWindow 交互历史回看窗口
	LookbackWindow time.Duration

	// SimilarityCacheTTL 相似度表缓存时长
	SimilarityCacheTTL time.Duration

	// ResultCacheTTL 推荐结果缓存时长
	ResultCacheTTL time.Duration

	// SlowThreshold 响应时间预算；超过记 SLOW，超过 2 倍触发告警
	SlowThreshold time.Duration

	// ComputeTimeout 计算路径的截止时间，超时转入兜底
	ComputeTimeout time.Duration

	// InteractionWeights 交互类型→权重映射
	InteractionWeights map[InteractionType]float64
}

// DefaultEngineConfig 返回默认引擎配置。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ScoreNorm:             10,
		SimilarityThreshold:   0.1,
		ContentScoreThreshold: 0.1,
		LookbackWindow:        30 * 24 * time.Hour,
		SimilarityCacheTTL:    time.Hour,
		ResultCacheTTL:        10 * time.Minute,
		SlowThreshold:         200 * time.Millisecond,
		ComputeTimeout:        2 * time.Second,
		InteractionWeights:    DefaultInteractionWeights(),
	}
}
