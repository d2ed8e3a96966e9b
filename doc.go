// Package recsys 是面向数字内容市场的混合推荐引擎。
//
// 核心链路由可组合的 Pipeline 承载：
//
//	召回（User-CF / Item-CF / 内容特征三路融合）
//	→ 过滤（已看/已购排除、CEL 规则）
//	→ 排序（可选的多信号重排）
//	→ 重排（多样性惩罚、截断）
//	→ 后处理（目录元信息补充）
//
// 编排层（engine 包）在 Pipeline 之外提供缓存 → 计算 → 兜底的三段式
// 请求路径、实验分流（experiment 包）与性能观测（monitor 包）。
//
// 领域接口（交互日志、内容目录、购买账本、KV 存储）定义在 core 包，
// 基础设施实现在 store（内存/Redis）与 feast（在线特征库）包。
//
// 最小使用方式：
//
//	mem := store.NewMemoryStore()
//	eng := engine.New(core.DefaultEngineConfig(), engine.Deps{
//		Interactions: store.NewInteractionLog(mem, ""),
//		Catalog:      store.NewCatalog(mem, ""),
//		Cache:        mem,
//	})
//	res, err := eng.GetRecommendations(ctx, walletAddr, core.DefaultOptions())
package recsys
