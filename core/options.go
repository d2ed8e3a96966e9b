package core

import (
	"fmt"
	"hash/fnv"
)

// Options 是一次推荐请求的配置对象。
// 零值不可直接使用，调用 DefaultOptions() 获取默认值后按需覆盖。
type Options struct {
	// Limit 返回条数上限
	Limit int

	// MinScore 多样性调整后的最低分数（兜底路径不受此约束）
	MinScore float64

	// ExcludeViewed / ExcludePurchased 是否排除已看/已购内容
	ExcludeViewed    bool
	ExcludePurchased bool

	// DiversityFactor 多样性惩罚系数，[0,1]
	DiversityFactor float64

	// UseContentBased 是否启用内容特征召回（三路融合）
	UseContentBased bool

	// ContentBasedWeight 内容路权重，协同两路按 (1-w) 缩放
	ContentBasedWeight float64

	// UseAdvancedRanking 是否启用多信号重排
	UseAdvancedRanking bool

	// Category 可选的类目限定（兜底召回也遵守）
	Category string
}

// DefaultOptions 返回默认请求配置。
func DefaultOptions() Options {
	return Options{
		Limit:              20,
		MinScore:           0.1,
		ExcludeViewed:      true,
		ExcludePurchased:   true,
		DiversityFactor:    0.3,
		UseContentBased:    true,
		ContentBasedWeight: 0.3,
	}
}

// Validate 在任何 I/O 之前校验配置；失败返回 INVALID_INPUT 领域错误，
// 这是唯一会直接上抛给调用方的错误类别。
func (o Options) Validate() error {
	if o.Limit <= 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("engine: limit must be positive, got %d", o.Limit))
	}
	if o.MinScore < 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("engine: min score must not be negative, got %v", o.MinScore))
	}
	if o.DiversityFactor < 0 || o.DiversityFactor > 1 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("engine: diversity factor must be in [0,1], got %v", o.DiversityFactor))
	}
	if o.ContentBasedWeight < 0 || o.ContentBasedWeight >= 1 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("engine: content-based weight must be in [0,1), got %v", o.ContentBasedWeight))
	}
	return nil
}

// Hash 返回配置的确定性哈希，作为缓存 key 的一部分。
func (o Options) Hash() string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%.4f|%t|%t|%.4f|%t|%.4f|%t|%s",
		o.Limit, o.MinScore, o.ExcludeViewed, o.ExcludePurchased,
		o.DiversityFactor, o.UseContentBased, o.ContentBasedWeight,
		o.UseAdvancedRanking, o.Category)
	return fmt.Sprintf("%08x", h.Sum32())
}
