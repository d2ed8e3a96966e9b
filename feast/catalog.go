// Package feast 把 Feast 在线特征库适配为内容目录（core.CatalogStore）。
// 特征物化由离线管道负责，这里只做在线读取。
package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/mintwave/recsys/core"
)

// 特征表与特征名约定，需与离线管道的 FeatureView 定义一致。
const (
	defaultFeatureTable = "content_features"
	defaultEntityName   = "content_id"
)

var featureNames = []string{
	"title", "category", "tags", "fingerprint", "file_type",
	"creator_address", "published_at", "creator_since", "views", "likes",
}

// Catalog 是 Feast 在线存储之上的内容目录实现。
//
// ListPublished 返回 NOT_SUPPORTED：Feast 在线存储是点查型的，
// 全量枚举应走 store.Catalog（KV 目录）。两者可通过组合目录互补。
type Catalog struct {
	client *feastsdk.GrpcClient

	// Project Feast 项目名
	Project string

	// FeatureTable 特征表名，默认 "content_features"
	FeatureTable string

	// EntityName 实体键名，默认 "content_id"
	EntityName string
}

// NewCatalog 连接 Feast Feature Server 并创建目录。
func NewCatalog(host string, port int, project string) (*Catalog, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast: connect %s:%d: %w", host, port, err)
	}
	return &Catalog{client: client, Project: project}, nil
}

func (c *Catalog) featureTable() string {
	if c.FeatureTable != "" {
		return c.FeatureTable
	}
	return defaultFeatureTable
}

func (c *Catalog) entityName() string {
	if c.EntityName != "" {
		return c.EntityName
	}
	return defaultEntityName
}

// GetContent 从在线存储取单个内容的特征快照。
func (c *Catalog) GetContent(ctx context.Context, contentID string) (*core.ContentFeatures, error) {
	table := c.featureTable()
	refs := make([]string, 0, len(featureNames))
	for _, name := range featureNames {
		refs = append(refs, table+":"+name)
	}

	resp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: refs,
		Entities: []feastsdk.Row{
			{c.entityName(): feastsdk.StrVal(contentID)},
		},
		Project: c.Project,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog: feast online read failed: %v", err))
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return nil, core.ErrContentNotFound
	}
	row := rows[0]

	get := func(name string) *feasttypes.Value {
		if v, ok := row[table+":"+name]; ok {
			return v
		}
		return row[name]
	}

	f := &core.ContentFeatures{
		ContentID:      contentID,
		Title:          get("title").GetStringVal(),
		Category:       get("category").GetStringVal(),
		Fingerprint:    get("fingerprint").GetStringVal(),
		FileType:       get("file_type").GetStringVal(),
		CreatorAddress: get("creator_address").GetStringVal(),
		Views:          get("views").GetInt64Val(),
		Likes:          get("likes").GetInt64Val(),
	}
	if tags := get("tags").GetStringListVal(); tags != nil {
		f.Tags = tags.GetVal()
	}
	if ts := get("published_at").GetInt64Val(); ts > 0 {
		f.PublishedAt = time.Unix(ts, 0).UTC()
	}
	if ts := get("creator_since").GetInt64Val(); ts > 0 {
		f.CreatorSince = time.Unix(ts, 0).UTC()
	}

	// 特征全空视为目录中不存在
	if f.Title == "" && f.Category == "" && f.CreatorAddress == "" {
		return nil, core.ErrContentNotFound
	}
	return f, nil
}

// ListPublished 不支持：在线特征库没有全量枚举语义。
func (c *Catalog) ListPublished(ctx context.Context) ([]*core.ContentFeatures, error) {
	return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported,
		"catalog: feast backend does not support listing")
}

var _ core.CatalogStore = (*Catalog)(nil)

// Layered 是组合目录：点查优先走 Primary（典型为 Feast），
// 失败或不支持时退到 Secondary（典型为 KV 目录）；全量枚举始终走 Secondary。
type Layered struct {
	Primary   core.CatalogStore
	Secondary core.CatalogStore
}

func (l *Layered) GetContent(ctx context.Context, contentID string) (*core.ContentFeatures, error) {
	if l.Primary != nil {
		f, err := l.Primary.GetContent(ctx, contentID)
		if err == nil {
			return f, nil
		}
		if core.IsNotFound(err) {
			return nil, err
		}
	}
	if l.Secondary == nil {
		return nil, core.ErrCatalogUnavailable
	}
	return l.Secondary.GetContent(ctx, contentID)
}

func (l *Layered) ListPublished(ctx context.Context) ([]*core.ContentFeatures, error) {
	if l.Secondary == nil {
		return nil, core.ErrCatalogUnavailable
	}
	return l.Secondary.ListPublished(ctx)
}

var _ core.CatalogStore = (*Layered)(nil)
