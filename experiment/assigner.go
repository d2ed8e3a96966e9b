package experiment

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/mintwave/recsys/core"
)

// 实验分组
const (
	GroupControl         = "control"          // 仅 User-CF 基线
	GroupHybrid          = "hybrid"           // 三路融合
	GroupAdvancedRanking = "advanced_ranking" // 三路融合 + 多信号重排
)

// Groups 返回全部分组名。
func Groups() []string {
	return []string{GroupControl, GroupHybrid, GroupAdvancedRanking}
}

// Assigner 决定用户的实验分组。
type Assigner interface {
	Assign(ctx context.Context, userID string) (string, error)
}

// HashAssigner 按用户 ID 哈希做确定性分流：
// fnv32a(userID) mod 100，[0,33) control、[33,66) hybrid、其余 advanced_ranking。
// 分组写入缓存（7 天 TTL）保证窗口内的黏性，缓存不可用时退化为纯哈希
// （哈希本身确定，黏性不受影响）。
type HashAssigner struct {
	// Cache 可选的分组缓存
	Cache core.Store

	// TTL 分组黏性窗口，默认 7 天
	TTL time.Duration
}

func (a *HashAssigner) ttl() time.Duration {
	if a.TTL > 0 {
		return a.TTL
	}
	return 7 * 24 * time.Hour
}

func (a *HashAssigner) Assign(ctx context.Context, userID string) (string, error) {
	cacheKey := "exp:group:" + userID
	if a.Cache != nil {
		if v, err := a.Cache.Get(ctx, cacheKey); err == nil && len(v) > 0 {
			return string(v), nil
		}
	}

	group := hashGroup(userID)
	if a.Cache != nil {
		_ = a.Cache.Set(ctx, cacheKey, []byte(group), int(a.ttl()/time.Second))
	}
	return group, nil
}

func hashGroup(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	switch bucket := h.Sum32() % 100; {
	case bucket < 33:
		return GroupControl
	case bucket < 66:
		return GroupHybrid
	default:
		return GroupAdvancedRanking
	}
}

// FixedAssigner 把所有用户固定到一个分组，用于灰度收敛或测试。
type FixedAssigner struct {
	Group string
}

func (a *FixedAssigner) Assign(ctx context.Context, userID string) (string, error) {
	if a.Group == "" {
		return GroupHybrid, nil
	}
	return a.Group, nil
}
