package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/mintwave/recsys/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Program 把表达式预编译为可复用的 CEL 程序。
// 规则过滤器按表达式编译一次，逐条候选求值。
type Program struct {
	prg cel.Program
}

// Compile 编译一个候选约束表达式。
//
// 表达式语法（CEL 标准语法）：
//   - label.recall_source == "content" / item.score > 0.2
//   - item.reason != "fallback-popular" && item.score > 0.1
//   - rctx.user_id != ""
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Program{prg: prg}, nil
}

// Match 对单个候选求值，返回布尔结果。
func (p *Program) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 时 CEL 会报错；用 label.key != null 检查存在性
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{}, len(it.Labels))
	labelAccessor := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = map[string]interface{}{"value": v.Value, "source": v.Source}
		// label.recall_source 直接返回 value，方便短表达式
		labelAccessor[k] = v.Value
	}

	item := map[string]interface{}{
		"id":      it.ID,
		"score":   it.Score,
		"reason":  string(it.Reason),
		"signals": it.Signals,
		"meta":    it.Meta,
		"labels":  labels,
	}

	rc := map[string]interface{}{}
	if rctx != nil {
		rc["user_id"] = rctx.UserID
		rc["group"] = rctx.Group
		rc["params"] = rctx.Params
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rc,
	}
}
