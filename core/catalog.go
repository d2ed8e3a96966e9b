package core

import (
	"context"
	"time"
)

// ContentFeatures 是内容目录的只读特征快照。
// Fingerprint 是定长十六进制指纹（感知哈希），用于内容相似度的距离项。
type ContentFeatures struct {
	ContentID      string
	Title          string
	Category       string // music / art / video / ebook / course
	Tags           []string
	Fingerprint    string // 定长 hex 字符串
	FileType       string
	CreatorAddress string // 创作者钱包地址
	PublishedAt    time.Time
	CreatorSince   time.Time // 创作者注册时间，用于信誉信号

	// 热度计数（目录维护，此处只读）
	Views int64
	Likes int64
}

// HasTag 判断内容是否带有指定标签。
func (f *ContentFeatures) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CatalogStore 是内容目录的只读访问接口。
type CatalogStore interface {
	// GetContent 按 ID 获取内容特征；不存在时返回 NOT_FOUND 领域错误
	GetContent(ctx context.Context, contentID string) (*ContentFeatures, error)

	// ListPublished 获取所有已发布内容的特征快照
	ListPublished(ctx context.Context) ([]*ContentFeatures, error)
}

// LedgerStore 是购买/交易账本的只读访问接口，用于排除与评估的 ground truth。
type LedgerStore interface {
	// GetPurchases 获取用户购买过的内容 ID 列表
	GetPurchases(ctx context.Context, userID string) ([]string, error)
}

// Catalog 错误定义
var (
	// ErrContentNotFound 表示内容在目录中不存在（容忍：省略元信息而非失败）
	ErrContentNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: content not found")

	// ErrCatalogUnavailable 表示目录不可用（本地降级处理）
	ErrCatalogUnavailable = NewDomainError(ModuleCatalog, ErrorCodeUnavailable, "catalog: unavailable")
)
