package similarity

import (
	"context"
	"math"
	"sort"

	"github.com/mintwave/recsys/core"
)

// FeatureWeights 是内容特征相似度各分量的权重。
type FeatureWeights struct {
	Category    float64 // 类目精确匹配
	Tags        float64 // 标签集合重叠：|A∩B| / sqrt(|A|·|B|)
	FileType    float64 // 文件类型精确匹配
	Creator     float64 // 创作者精确匹配
	Fingerprint float64 // 指纹相似度：hex nibble 归一化汉明距离
}

// DefaultFeatureWeights 返回默认特征权重。
func DefaultFeatureWeights() FeatureWeights {
	return FeatureWeights{
		Category:    0.30,
		Tags:        0.35,
		FileType:    0.15,
		Creator:     0.10,
		Fingerprint: 0.10,
	}
}

// ContentSimilarity 计算画像→内容的特征相似度。
// 注意这是有向比较（固定画像对任意候选），不要求对称。
type ContentSimilarity struct {
	Weights FeatureWeights
}

// NewContentSimilarity 创建使用默认权重的内容相似度计算器。
func NewContentSimilarity() *ContentSimilarity {
	return &ContentSimilarity{Weights: DefaultFeatureWeights()}
}

// Similarity 返回 [0,1] 区间的相似度与命中的特征标签（用于可解释性）。
func (s *ContentSimilarity) Similarity(profile, candidate *core.ContentFeatures) (float64, []string) {
	if profile == nil || candidate == nil {
		return 0, nil
	}

	var score float64
	var matched []string

	if profile.Category != "" && profile.Category == candidate.Category {
		score += s.Weights.Category
		matched = append(matched, "category:"+candidate.Category)
	}

	if overlap := tagOverlap(profile.Tags, candidate.Tags); overlap > 0 {
		score += s.Weights.Tags * overlap
		matched = append(matched, "tags")
	}

	if profile.FileType != "" && profile.FileType == candidate.FileType {
		score += s.Weights.FileType
		matched = append(matched, "file_type:"+candidate.FileType)
	}

	if profile.CreatorAddress != "" && profile.CreatorAddress == candidate.CreatorAddress {
		score += s.Weights.Creator
		matched = append(matched, "creator")
	}

	if fp := fingerprintSimilarity(profile.Fingerprint, candidate.Fingerprint); fp > 0 {
		score += s.Weights.Fingerprint * fp
		if fp > 0.5 {
			matched = append(matched, "fingerprint")
		}
	}

	return score, matched
}

// tagOverlap 计算标签集合的归一化交集：|A∩B| / sqrt(|A|·|B|)。
func tagOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	intersection := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			intersection++
		}
	}
	return float64(intersection) / math.Sqrt(float64(len(a))*float64(len(b)))
}

// fingerprintSimilarity 计算两个定长 hex 指纹的相似度：
// 每个 hex 字符视为 4 bit，1 - 汉明距离/总位数。长度不一致或为空时返回 0。
func fingerprintSimilarity(a, b string) float64 {
	if a == "" || b == "" || len(a) != len(b) {
		return 0
	}
	distance := 0
	for i := 0; i < len(a); i++ {
		xa, okA := hexNibble(a[i])
		xb, okB := hexNibble(b[i])
		if !okA || !okB {
			return 0
		}
		diff := xa ^ xb
		for diff != 0 {
			distance += int(diff & 1)
			diff >>= 1
		}
	}
	totalBits := len(a) * 4
	return 1 - float64(distance)/float64(totalBits)
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// PreferenceSummary 是用户偏好的摘要视图（解释性输出）。
type PreferenceSummary struct {
	FavoriteCategories map[string]float64 `json:"favorite_categories"`
	FavoriteCreators   map[string]float64 `json:"favorite_creators"`
	AverageWeight      float64            `json:"average_weight"`
	InteractionCount   int                `json:"interaction_count"`
}

// ProfileBuilder 根据交互历史合成用户的内容画像。
// 画像本身是一个合成的 ContentFeatures：top 类目、top 10 标签、
// top 文件类型、top 创作者、最近一次交互内容的指纹。
type ProfileBuilder struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore
}

// Build 构建画像与偏好摘要。无历史时返回 (nil, nil, nil)。
func (b *ProfileBuilder) Build(ctx context.Context, userID string) (*core.ContentFeatures, *PreferenceSummary, error) {
	interactions, err := b.Interactions.GetUserInteractions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(interactions) == 0 {
		return nil, nil, nil
	}

	categories := make(map[string]float64)
	tags := make(map[string]float64)
	fileTypes := make(map[string]float64)
	creators := make(map[string]float64)
	fingerprint := ""
	var totalWeight float64

	// interactions 按时间倒序，首个有指纹的内容即"最近代表作"
	for _, in := range interactions {
		totalWeight += in.Weight

		features, err := b.Catalog.GetContent(ctx, in.ContentID)
		if err != nil {
			continue // 目录缺失条目：容忍
		}
		if features.Category != "" {
			categories[features.Category] += in.Weight
		}
		for _, t := range features.Tags {
			tags[t] += in.Weight
		}
		if features.FileType != "" {
			fileTypes[features.FileType] += in.Weight
		}
		if features.CreatorAddress != "" {
			creators[features.CreatorAddress] += in.Weight
		}
		if fingerprint == "" && features.Fingerprint != "" {
			fingerprint = features.Fingerprint
		}
	}

	profile := &core.ContentFeatures{
		Category:       topKey(categories),
		Tags:           topKeys(tags, 10),
		FileType:       topKey(fileTypes),
		CreatorAddress: topKey(creators),
		Fingerprint:    fingerprint,
	}
	summary := &PreferenceSummary{
		FavoriteCategories: topN(categories, 3),
		FavoriteCreators:   topN(creators, 3),
		AverageWeight:      totalWeight / float64(len(interactions)),
		InteractionCount:   len(interactions),
	}
	return profile, summary, nil
}

func topKey(m map[string]float64) string {
	keys := topKeys(m, 1)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

func topKeys(m map[string]float64, n int) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j] // 权重相同时按字典序，保证确定性
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func topN(m map[string]float64, n int) map[string]float64 {
	out := make(map[string]float64, n)
	for _, k := range topKeys(m, n) {
		out[k] = m[k]
	}
	return out
}
