package core

import (
	"context"
	"time"
)

// InteractionType 是行为日志中的交互类型。
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionLike     InteractionType = "like"
	InteractionShare    InteractionType = "share"
	InteractionCartAdd  InteractionType = "cart_add"
	InteractionPurchase InteractionType = "purchase"
)

// DefaultInteractionWeights 是交互类型到权重的固定映射。
// 同一 (user, content) 对上的多条同类事件按权重累加。
func DefaultInteractionWeights() map[InteractionType]float64 {
	return map[InteractionType]float64{
		InteractionView:     1,
		InteractionLike:     3,
		InteractionShare:    5,
		InteractionCartAdd:  7,
		InteractionPurchase: 10,
	}
}

// Interaction 是一条加权交互记录。由外部行为日志拥有，此处只读。
type Interaction struct {
	UserID    string
	ContentID string
	Type      InteractionType
	Weight    float64
	Timestamp time.Time
}

// InteractionStore 是交互日志的只读访问接口。
//
// 约定：
//   - 返回限定在回看窗口（默认 30 天）内的记录，按时间倒序
//   - 无历史时返回空序列而非错误——这是下游触发兜底的主要信号
type InteractionStore interface {
	// GetUserInteractions 获取用户在回看窗口内的交互记录
	GetUserInteractions(ctx context.Context, userID string) ([]Interaction, error)

	// GetContentInteractions 获取内容在回看窗口内被交互的记录
	GetContentInteractions(ctx context.Context, contentID string) ([]Interaction, error)

	// GetActiveUsers 获取窗口内有交互的用户列表（用于批量预热）
	GetActiveUsers(ctx context.Context) ([]string, error)

	// GetActiveContent 获取窗口内被交互的内容列表（用于批量预热）
	GetActiveContent(ctx context.Context) ([]string, error)
}

// VectorOf 把交互序列聚合为 contentID → 累计权重 的稀疏向量。
func VectorOf(interactions []Interaction) map[string]float64 {
	vec := make(map[string]float64, len(interactions))
	for _, in := range interactions {
		vec[in.ContentID] += in.Weight
	}
	return vec
}

// UsersOf 把内容的交互序列聚合为 userID → 累计权重。
func UsersOf(interactions []Interaction) map[string]float64 {
	users := make(map[string]float64, len(interactions))
	for _, in := range interactions {
		users[in.UserID] += in.Weight
	}
	return users
}

// RankedContent 是热度榜上的一个条目。
type RankedContent struct {
	ContentID string
	Score     float64
}

// PopularityStore 是交互热度榜的只读接口。榜单按交互权重累计，
// 由交互日志侧维护；榜单为空时调用方回退到目录计数。
type PopularityStore interface {
	// TopContent 按累计热度降序返回至多 limit 个内容
	TopContent(ctx context.Context, limit int) ([]RankedContent, error)
}

// ErrInteractionUnavailable 表示交互日志不可用（本地降级为空历史处理）。
var ErrInteractionUnavailable = NewDomainError(ModuleInteraction, ErrorCodeUnavailable, "interaction: log unavailable")
