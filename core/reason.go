package core

// Reason 是推荐理由的封闭类型。相比自由字符串，封闭类型可以被穷举处理，
// 同时保留可解释性（直接作为对外展示的 reason 字段）。
type Reason string

const (
	ReasonUserBased           Reason = "user-based"
	ReasonItemBased           Reason = "item-based"
	ReasonContentBased        Reason = "content-based"
	ReasonHybridCollaborative Reason = "hybrid-collaborative"
	ReasonHybridFull          Reason = "hybrid-full"
	ReasonFallbackPopular     Reason = "fallback-popular"
	ReasonFallbackRecent      Reason = "fallback-recent"
)

// IsFallback 判断是否为兜底理由。
func (r Reason) IsFallback() bool {
	return r == ReasonFallbackPopular || r == ReasonFallbackRecent
}

// Family 返回理由所属的策略族，用于多样性重排时判断"同一来源"。
// 融合之后理由会升级（hybrid-*），按族比较避免升级掩盖来源冗余。
func (r Reason) Family() string {
	switch r {
	case ReasonUserBased:
		return "user"
	case ReasonItemBased:
		return "item"
	case ReasonContentBased:
		return "content"
	case ReasonHybridCollaborative, ReasonHybridFull:
		return "hybrid"
	case ReasonFallbackPopular, ReasonFallbackRecent:
		return "fallback"
	default:
		return string(r)
	}
}

// EscalateReason 在融合阶段合并两个理由：
//   - 协同来源之间重叠（user-based × item-based）→ hybrid-collaborative
//   - 任一来源与内容来源重叠 → hybrid-full
func EscalateReason(a, b Reason) Reason {
	if a == b {
		return a
	}
	if a == ReasonContentBased || b == ReasonContentBased ||
		a == ReasonHybridFull || b == ReasonHybridFull {
		return ReasonHybridFull
	}
	return ReasonHybridCollaborative
}
