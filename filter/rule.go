package filter

import (
	"context"

	"github.com/mintwave/recsys/core"
	"github.com/mintwave/recsys/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器。
// 表达式求值为 true 时该内容被过滤，例如：
//
//	label("recall_source").value == "hot" && item.score < 0.2
type RuleFilter struct {
	name    string
	program *dsl.Program
}

// NewRuleFilter 编译表达式并创建规则过滤器。
func NewRuleFilter(name, expr string) (*RuleFilter, error) {
	program, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "filter.rule"
	}
	return &RuleFilter{name: name, program: program}, nil
}

func (f *RuleFilter) Name() string { return f.name }

func (f *RuleFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.program == nil || item == nil {
		return false, nil
	}
	return f.program.Match(item, rctx)
}
