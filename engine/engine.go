// Package engine 是推荐系统的编排层：缓存 → 实时计算 → 兜底的三段式
// 请求路径，外加缓存管理、批量预热与离线评估等运维操作。
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/experiment"
	"github.com/mintwave/recsys/feature"
	"github.com/mintwave/recsys/filter"
	"github.com/mintwave/recsys/monitor"
	"github.com/mintwave/recsys/pipeline"
	"github.com/mintwave/recsys/rank"
	"github.com/mintwave/recsys/recall"
	"github.com/mintwave/recsys/rerank"
	"github.com/mintwave/recsys/similarity"
)

const opGetRecommendations = "get_recommendations"

// Deps 是引擎的运行时依赖。Interactions 与 Catalog 必填，
// 其余为空时对应能力退化（无缓存/无账本排除/无实验分流/无观测）。
type Deps struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore
	Ledger       core.LedgerStore
	Cache        core.Store
	Popularity   core.PopularityStore
	Tracker      *monitor.Tracker
	Assigner     experiment.Assigner
	Logger       zerolog.Logger
}

// Engine 是推荐引擎。并发安全：所有状态都在外部存储或只读配置中。
type Engine struct {
	cfg    core.EngineConfig
	deps   Deps
	logger zerolog.Logger

	users    *similarity.UserSimilarity
	items    *similarity.ItemSimilarity
	profiles *similarity.ProfileBuilder
	content  *similarity.ContentSimilarity
}

// New 创建引擎。cfg 的零值字段回落到 DefaultEngineConfig。
func New(cfg core.EngineConfig, deps Deps) *Engine {
	def := core.DefaultEngineConfig()
	if cfg.ScoreNorm <= 0 {
		cfg.ScoreNorm = def.ScoreNorm
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.ContentScoreThreshold <= 0 {
		cfg.ContentScoreThreshold = def.ContentScoreThreshold
	}
	if cfg.LookbackWindow <= 0 {
		cfg.LookbackWindow = def.LookbackWindow
	}
	if cfg.SimilarityCacheTTL <= 0 {
		cfg.SimilarityCacheTTL = def.SimilarityCacheTTL
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = def.ResultCacheTTL
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = def.SlowThreshold
	}
	if cfg.ComputeTimeout <= 0 {
		cfg.ComputeTimeout = def.ComputeTimeout
	}
	if cfg.InteractionWeights == nil {
		cfg.InteractionWeights = def.InteractionWeights
	}

	e := &Engine{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
	}
	e.users = &similarity.UserSimilarity{
		Interactions: deps.Interactions,
		Cache:        deps.Cache,
		Threshold:    cfg.SimilarityThreshold,
		CacheTTL:     cfg.SimilarityCacheTTL,
	}
	e.items = &similarity.ItemSimilarity{
		Interactions: deps.Interactions,
		Cache:        deps.Cache,
		Threshold:    cfg.SimilarityThreshold,
		CacheTTL:     cfg.SimilarityCacheTTL,
	}
	e.profiles = &similarity.ProfileBuilder{
		Interactions: deps.Interactions,
		Catalog:      deps.Catalog,
	}
	e.content = similarity.NewContentSimilarity()
	return e
}

// GetRecommendations 是主入口：缓存 → 计算 → 兜底。
// 除 INVALID_INPUT 外的失败都在内部消化，调用方总能拿到结果。
func (e *Engine) GetRecommendations(ctx context.Context, userID string, opts core.Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	group := e.assign(ctx, userID)
	cacheKey := fmt.Sprintf("rec:%s:%s:%s", userID, group, opts.Hash())

	if res := e.fromCache(ctx, cacheKey); res.status == stageHit {
		e.record(start, monitor.SourceCache)
		return &Result{Items: res.items, Group: group, Source: monitor.SourceCache}, nil
	}

	res := e.compute(ctx, userID, group, opts)
	switch res.status {
	case stageHit:
		e.storeResult(ctx, cacheKey, res.items)
		e.record(start, monitor.SourceComputed)
		return &Result{Items: res.items, Group: group, Source: monitor.SourceComputed}, nil
	case stageFailed:
		e.logger.Warn().Err(res.err).
			Str("user_id", userID).
			Str("group", group).
			Msg("recommendation compute failed, falling back")
	}

	items, err := e.GetFallbackRecommendations(ctx, userID, opts)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			fmt.Sprintf("engine: fallback failed: %v", err))
	}
	e.record(start, monitor.SourceFallback)
	return &Result{Items: items, Group: group, Source: monitor.SourceFallback}, nil
}

// GetFallbackRecommendations 返回兜底推荐（热门/最新），无个性化。
// MinScore 不适用于兜底路径，只做排除与截断。兜底是请求路径的最后
// 一环：目录不可用时就地降级为空列表，不向调用方抛错。
func (e *Engine) GetFallbackRecommendations(ctx context.Context, userID string, opts core.Options) ([]*core.Item, error) {
	rctx := core.NewRecommendContext(userID)
	rctx.Options = opts

	hot := &recall.HotRecall{Catalog: e.deps.Catalog, Popularity: e.deps.Popularity}
	items, err := hot.Recall(ctx, rctx)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("user_id", userID).
			Msg("fallback recall failed, serving empty result")
		return []*core.Item{}, nil
	}

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&filter.FilterNode{Filters: []filter.Filter{
			filter.NewExclusionFilter(e.deps.Interactions, e.deps.Ledger),
		}},
		&feature.EnrichNode{Catalog: e.deps.Catalog},
	}}
	if processed, err := p.Run(ctx, rctx, items); err == nil {
		items = processed
	} else {
		e.logger.Warn().Err(err).
			Str("user_id", userID).
			Msg("fallback post-processing failed, serving raw candidates")
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items, nil
}

// fromCache 读取结果缓存。缓存错误按 miss 处理（记日志）。
func (e *Engine) fromCache(ctx context.Context, key string) stageResult {
	if e.deps.Cache == nil {
		return miss()
	}
	data, err := e.deps.Cache.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			e.logger.Debug().Err(err).Str("key", key).Msg("result cache read failed")
		}
		return miss()
	}
	items, err := unmarshalItems(data)
	if err != nil {
		return miss()
	}
	return hit(items)
}

func (e *Engine) storeResult(ctx context.Context, key string, items []*core.Item) {
	if e.deps.Cache == nil {
		return
	}
	data, err := marshalItems(items)
	if err != nil {
		return
	}
	ttl := int(e.cfg.ResultCacheTTL / time.Second)
	if err := e.deps.Cache.Set(ctx, key, data, ttl); err != nil {
		e.logger.Debug().Err(err).Str("key", key).Msg("result cache write failed")
	}
}

// compute 在截止时间内执行分组对应的 Pipeline。
// 空产出是 Miss（冷启动用户），错误是 Failed，两者都转入兜底。
func (e *Engine) compute(ctx context.Context, userID, group string, opts core.Options) stageResult {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.ComputeTimeout)
	defer cancel()

	rctx := core.NewRecommendContext(userID)
	rctx.Options = opts
	rctx.Group = group

	items, err := e.pipelineFor(group, opts).Run(cctx, rctx, nil)
	if err != nil {
		return failed(err)
	}
	if len(items) == 0 {
		return miss()
	}
	return hit(items)
}

// pipelineFor 按实验分组装配 Pipeline：
//
//	control          user-based 召回 → 排除 → 截断 → 元信息
//	hybrid           三路融合 → 排除 → 多样性 → 截断 → 元信息
//	advanced_ranking hybrid 基础上在多样性前插入多信号重排
func (e *Engine) pipelineFor(group string, opts core.Options) *pipeline.Pipeline {
	exclusion := &filter.FilterNode{Filters: []filter.Filter{
		filter.NewExclusionFilter(e.deps.Interactions, e.deps.Ledger),
	}}
	enrich := &feature.EnrichNode{Catalog: e.deps.Catalog}

	if group == experiment.GroupControl {
		return &pipeline.Pipeline{Nodes: []pipeline.Node{
			&recall.SourceNode{Source: e.userBasedSource()},
			exclusion,
			&rerank.TopNNode{},
			enrich,
		}}
	}

	nodes := []pipeline.Node{
		&recall.FusionNode{
			UserBased:    e.userBasedSource(),
			ItemBased:    e.itemBasedSource(),
			ContentBased: e.contentBasedSource(),
		},
		exclusion,
	}
	if group == experiment.GroupAdvancedRanking || opts.UseAdvancedRanking {
		nodes = append(nodes, &rank.AdvancedRankNode{Catalog: e.deps.Catalog})
	}
	nodes = append(nodes,
		&rerank.DiversityNode{Catalog: e.deps.Catalog},
		&rerank.TopNNode{},
		enrich,
	)
	return &pipeline.Pipeline{Nodes: nodes}
}

func (e *Engine) userBasedSource() recall.Source {
	return &recall.UserBasedRecall{
		Users:        e.users,
		Interactions: e.deps.Interactions,
		ScoreNorm:    e.cfg.ScoreNorm,
	}
}

func (e *Engine) itemBasedSource() recall.Source {
	return &recall.ItemBasedRecall{
		Items:        e.items,
		Interactions: e.deps.Interactions,
		ScoreNorm:    e.cfg.ScoreNorm,
	}
}

func (e *Engine) contentBasedSource() recall.Source {
	return &recall.ContentBasedRecall{
		Profiles:   e.profiles,
		Similarity: e.content,
		Catalog:    e.deps.Catalog,
		Threshold:  e.cfg.ContentScoreThreshold,
	}
}

func (e *Engine) assign(ctx context.Context, userID string) string {
	if e.deps.Assigner == nil {
		return experiment.GroupHybrid
	}
	group, err := e.deps.Assigner.Assign(ctx, userID)
	if err != nil || group == "" {
		return experiment.GroupHybrid
	}
	return group
}

func (e *Engine) record(start time.Time, source monitor.Source) {
	if e.deps.Tracker != nil {
		e.deps.Tracker.Record(opGetRecommendations, time.Since(start), source)
	}
}
