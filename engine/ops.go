package engine

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/monitor"
	"github.com/mintwave/recsys/pkg/utils"
	"github.com/mintwave/recsys/similarity"
)

// FindSimilarUsers 返回与用户行为最相似的用户列表。
func (e *Engine) FindSimilarUsers(ctx context.Context, userID string, limit int) ([]similarity.Entry, error) {
	return e.users.FindSimilarUsers(ctx, userID, limit)
}

// FindSimilarContent 返回与内容共现最相似的内容列表（Item-CF 视角）。
func (e *Engine) FindSimilarContent(ctx context.Context, contentID string, limit int) ([]similarity.Entry, error) {
	return e.items.FindSimilarContent(ctx, contentID, limit)
}

// FindSimilarContentByFeatures 按内容特征找相似内容（"更多类似作品"场景）。
// 以目标内容自身的特征作为画像，对全量已发布内容做特征匹配。
func (e *Engine) FindSimilarContentByFeatures(ctx context.Context, contentID string, limit int) ([]*core.Item, error) {
	target, err := e.deps.Catalog.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	published, err := e.deps.Catalog.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	var out []*core.Item
	for _, candidate := range published {
		if candidate.ContentID == contentID {
			continue
		}
		score, matched := e.content.Similarity(target, candidate)
		if score < e.cfg.ContentScoreThreshold {
			continue
		}
		it := core.NewItem(candidate.ContentID)
		it.Score = score
		it.Reason = core.ReasonContentBased
		if len(matched) > 0 {
			it.PutLabel("matched_features", utils.Label{
				Value:  strings.Join(matched, "|"),
				Source: "similarity",
			})
		}
		out = append(out, it)
	}

	entries := make([]similarity.Entry, 0, len(out))
	index := make(map[string]*core.Item, len(out))
	for _, it := range out {
		entries = append(entries, similarity.Entry{ID: it.ID, Similarity: it.Score})
		index[it.ID] = it
	}
	entries = similarity.SortEntries(entries, limit)

	result := make([]*core.Item, 0, len(entries))
	for _, en := range entries {
		result = append(result, index[en.ID])
	}
	return result, nil
}

// UserPreferences 返回用户偏好摘要；无历史时返回 nil。
func (e *Engine) UserPreferences(ctx context.Context, userID string) (*similarity.PreferenceSummary, error) {
	_, summary, err := e.profiles.Build(ctx, userID)
	return summary, err
}

// PerformanceMetrics 返回各操作的性能指标快照。未注入 Tracker 时为空表。
func (e *Engine) PerformanceMetrics() map[string]monitor.Metrics {
	out := make(map[string]monitor.Metrics)
	if e.deps.Tracker == nil {
		return out
	}
	for _, op := range e.deps.Tracker.Operations() {
		out[op] = e.deps.Tracker.MetricsFor(op)
	}
	return out
}

// ClearCache 失效推荐结果缓存。userID 为空时清空全部用户。
func (e *Engine) ClearCache(ctx context.Context, userID string) error {
	if e.deps.Cache == nil {
		return nil
	}
	pattern := "rec:*"
	if userID != "" {
		pattern = "rec:" + userID + ":*"
	}
	return e.deps.Cache.DeleteByPattern(ctx, pattern)
}

// TrainModels 批量预热相似度缓存：对窗口内的活跃用户和活跃内容
// 各算一遍相似度表。典型用法是低峰期定时任务。
func (e *Engine) TrainModels(ctx context.Context) error {
	activeUsers, err := e.deps.Interactions.GetActiveUsers(ctx)
	if err != nil {
		return err
	}
	activeContent, err := e.deps.Interactions.GetActiveContent(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, userID := range activeUsers {
		userID := userID
		g.Go(func() error {
			_, err := e.users.FindSimilarUsers(gctx, userID, 10)
			return err
		})
	}
	for _, contentID := range activeContent {
		contentID := contentID
		g.Go(func() error {
			_, err := e.items.FindSimilarContent(gctx, contentID, 10)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.logger.Info().
		Int("users", len(activeUsers)).
		Int("content", len(activeContent)).
		Msg("similarity warmup complete")
	return nil
}

// AccuracyReport 是离线评估结果：以购买账本作为 ground truth。
type AccuracyReport struct {
	SampledUsers int     `json:"sampled_users"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`

	// Coverage 推荐覆盖率：被推荐到的内容 / 已发布内容
	Coverage float64 `json:"coverage"`
}

// EvaluateAccuracy 对至多 sampleSize 个活跃用户做留出评估：
// 先把用户的购买从输入历史中留出，再跑一遍计算路径，衡量链路能否
// 重新找回这些购买。评估绕过结果缓存与相似度缓存。
func (e *Engine) EvaluateAccuracy(ctx context.Context, sampleSize int) (*AccuracyReport, error) {
	if sampleSize <= 0 {
		sampleSize = 100
	}
	if e.deps.Ledger == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: accuracy evaluation requires a purchase ledger")
	}

	activeUsers, err := e.deps.Interactions.GetActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(activeUsers) > sampleSize {
		activeUsers = activeUsers[:sampleSize]
	}

	published, err := e.deps.Catalog.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	opts := core.DefaultOptions()
	opts.ExcludePurchased = false // ground truth 是购买，不能排除

	recommended := make(map[string]struct{})
	var precisionSum, recallSum float64
	evaluated := 0
	for _, userID := range activeUsers {
		purchases, err := e.deps.Ledger.GetPurchases(ctx, userID)
		if err != nil || len(purchases) == 0 {
			continue
		}
		hidden := make(map[string]struct{}, len(purchases))
		for _, id := range purchases {
			hidden[id] = struct{}{}
		}
		// 评估固定走融合链路，避免实验分流引入方差
		res := e.evalCompute(ctx, userID, hidden, opts)
		if res.status != stageHit {
			continue
		}

		purchased := make(map[string]struct{}, len(purchases))
		for _, id := range purchases {
			purchased[id] = struct{}{}
		}
		hits := 0
		for _, it := range res.items {
			recommended[it.ID] = struct{}{}
			if _, ok := purchased[it.ID]; ok {
				hits++
			}
		}
		precisionSum += float64(hits) / float64(len(res.items))
		recallSum += float64(hits) / float64(len(purchases))
		evaluated++
	}

	report := &AccuracyReport{SampledUsers: evaluated}
	if evaluated > 0 {
		report.Precision = precisionSum / float64(evaluated)
		report.Recall = recallSum / float64(evaluated)
		if report.Precision+report.Recall > 0 {
			report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
		}
	}
	if len(published) > 0 {
		report.Coverage = float64(len(recommended)) / float64(len(published))
	}
	return report, nil
}
