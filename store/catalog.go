package store

import (
	"context"
	"encoding/json"

	"github.com/mintwave/recsys/core"
)

// Catalog 是基于 core.Store 的内容目录适配器，实现 core.CatalogStore。
//
// key 布局：
//   内容特征：{KeyPrefix}:content:{contentID} → JSON core.ContentFeatures
//   发布列表：{KeyPrefix}:published           → JSON []string
type Catalog struct {
	store core.Store

	KeyPrefix string
}

// NewCatalog 创建一个目录适配器。
func NewCatalog(s core.Store, keyPrefix string) *Catalog {
	if keyPrefix == "" {
		keyPrefix = "catalog"
	}
	return &Catalog{store: s, KeyPrefix: keyPrefix}
}

func (c *Catalog) Name() string { return "catalog" }

func (c *Catalog) GetContent(ctx context.Context, contentID string) (*core.ContentFeatures, error) {
	data, err := c.store.Get(ctx, c.KeyPrefix+":content:"+contentID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrContentNotFound
		}
		return nil, err
	}
	var f core.ContentFeatures
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Catalog) ListPublished(ctx context.Context) ([]*core.ContentFeatures, error) {
	data, err := c.store.Get(ctx, c.KeyPrefix+":published")
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.KeyPrefix+":content:"+id)
	}
	values, err := c.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*core.ContentFeatures, 0, len(ids))
	for _, id := range ids {
		data, ok := values[c.KeyPrefix+":content:"+id]
		if !ok {
			continue // 列表与内容条目之间允许短暂不一致
		}
		var f core.ContentFeatures
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		out = append(out, &f)
	}
	return out, nil
}

// Put 写入一条内容特征并登记到发布列表（测试/原型用）。
func (c *Catalog) Put(ctx context.Context, f *core.ContentFeatures) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.KeyPrefix+":content:"+f.ContentID, data); err != nil {
		return err
	}

	var ids []string
	if data, err := c.store.Get(ctx, c.KeyPrefix+":published"); err == nil {
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
	} else if !core.IsStoreNotFound(err) {
		return err
	}
	for _, id := range ids {
		if id == f.ContentID {
			return nil
		}
	}
	ids = append(ids, f.ContentID)
	listData, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.KeyPrefix+":published", listData)
}

var _ core.CatalogStore = (*Catalog)(nil)
