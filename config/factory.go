package config

import (
	"fmt"
	"time"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/feature"
	"github.com/mintwave/recsys/filter"
	"github.com/mintwave/recsys/pipeline"
	"github.com/mintwave/recsys/pkg/conv"
	"github.com/mintwave/recsys/rank"
	"github.com/mintwave/recsys/recall"
	"github.com/mintwave/recsys/rerank"
	"github.com/mintwave/recsys/similarity"
)

// Deps 是配置驱动构建 Node 时注入的运行时依赖。
// 配置文件只描述拓扑和参数，真实的存储连接由调用方提供。
type Deps struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore
	Ledger       core.LedgerStore
	Cache        core.Store
	Popularity   core.PopularityStore
}

// DefaultFactory 返回包含所有内置 Node 的工厂。
//
// 支持的类型：recall.fusion / recall.user_based / recall.item_based /
// recall.content_based / recall.hot / filter.exclusion / filter.rule /
// rank.advanced / rerank.diversity / rerank.topn / feature.enrich
func DefaultFactory(deps *Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()
	if deps == nil {
		deps = &Deps{}
	}

	factory.Register("recall.fusion", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.FusionNode{
			UserBased:    buildUserBasedSource(deps, cfg),
			ItemBased:    buildItemBasedSource(deps, cfg),
			ContentBased: buildContentBasedSource(deps, cfg),
			UserWeight:   conv.ConfigGetFloat(cfg, "user_weight", 0.6),
			ItemWeight:   conv.ConfigGetFloat(cfg, "item_weight", 0.4),
		}, nil
	})
	factory.Register("recall.user_based", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.SourceNode{Source: buildUserBasedSource(deps, cfg)}, nil
	})
	factory.Register("recall.item_based", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.SourceNode{Source: buildItemBasedSource(deps, cfg)}, nil
	})
	factory.Register("recall.content_based", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.SourceNode{Source: buildContentBasedSource(deps, cfg)}, nil
	})
	factory.Register("recall.hot", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.SourceNode{Source: &recall.HotRecall{
			Catalog:    deps.Catalog,
			Popularity: deps.Popularity,
		}}, nil
	})

	factory.Register("filter.exclusion", func(cfg map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{
			filter.NewExclusionFilter(deps.Interactions, deps.Ledger),
		}}, nil
	})
	factory.Register("filter.rule", func(cfg map[string]any) (pipeline.Node, error) {
		expr := conv.ConfigGet[string](cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("filter.rule: expr not found")
		}
		rule, err := filter.NewRuleFilter(conv.ConfigGet[string](cfg, "name", ""), expr)
		if err != nil {
			return nil, fmt.Errorf("filter.rule: %w", err)
		}
		return &filter.FilterNode{Filters: []filter.Filter{rule}}, nil
	})

	factory.Register("rank.advanced", func(cfg map[string]any) (pipeline.Node, error) {
		node := &rank.AdvancedRankNode{Catalog: deps.Catalog}
		if w, ok := cfg["weights"].(map[string]any); ok {
			node.Weights = rank.SignalWeights{
				Popularity: conv.ConfigGetFloat(w, "popularity", 0),
				Freshness:  conv.ConfigGetFloat(w, "freshness", 0),
				Engagement: conv.ConfigGetFloat(w, "engagement", 0),
				Reputation: conv.ConfigGetFloat(w, "reputation", 0),
			}
		}
		return node, nil
	})

	factory.Register("rerank.diversity", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.DiversityNode{Catalog: deps.Catalog}, nil
	})
	factory.Register("rerank.topn", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TopNNode{}, nil
	})

	factory.Register("feature.enrich", func(cfg map[string]any) (pipeline.Node, error) {
		return &feature.EnrichNode{Catalog: deps.Catalog}, nil
	})

	return factory
}

func buildUserBasedSource(deps *Deps, cfg map[string]any) recall.Source {
	return &recall.UserBasedRecall{
		Users: &similarity.UserSimilarity{
			Interactions: deps.Interactions,
			Cache:        deps.Cache,
			Threshold:    conv.ConfigGetFloat(cfg, "similarity_threshold", 0),
			CacheTTL:     configDuration(cfg, "similarity_cache_ttl"),
		},
		Interactions:     deps.Interactions,
		TopKSimilarUsers: conv.ConfigGetInt(cfg, "top_k_similar_users", 0),
		ScoreNorm:        conv.ConfigGetFloat(cfg, "score_norm", 0),
	}
}

func buildItemBasedSource(deps *Deps, cfg map[string]any) recall.Source {
	return &recall.ItemBasedRecall{
		Items: &similarity.ItemSimilarity{
			Interactions: deps.Interactions,
			Cache:        deps.Cache,
			Threshold:    conv.ConfigGetFloat(cfg, "similarity_threshold", 0),
			CacheTTL:     configDuration(cfg, "similarity_cache_ttl"),
		},
		Interactions:       deps.Interactions,
		TopKSimilarContent: conv.ConfigGetInt(cfg, "top_k_similar_content", 0),
		ScoreNorm:          conv.ConfigGetFloat(cfg, "score_norm", 0),
	}
}

func buildContentBasedSource(deps *Deps, cfg map[string]any) recall.Source {
	return &recall.ContentBasedRecall{
		Profiles: &similarity.ProfileBuilder{
			Interactions: deps.Interactions,
			Catalog:      deps.Catalog,
		},
		Similarity: similarity.NewContentSimilarity(),
		Catalog:    deps.Catalog,
		Threshold:  conv.ConfigGetFloat(cfg, "content_score_threshold", 0),
	}
}

func configDuration(cfg map[string]any, key string) time.Duration {
	if sec := conv.ConfigGetInt(cfg, key, 0); sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return 0
}
