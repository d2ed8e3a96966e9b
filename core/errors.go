package core

// DomainError 是领域层的统一错误类型。
//
// 错误分类（见各模块）：
//   - UNAVAILABLE：上游（交互日志/目录/缓存）不可用，本地降级处理，不上抛给调用方
//   - INTERNAL_ERROR：计算失败，编排层捕获后转入兜底
//   - NOT_FOUND：引用的内容在目录中不存在，容忍（省略元信息）
//   - INVALID_INPUT：配置/参数错误，唯一对调用方可见的失败
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "engine"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 上游不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入/配置无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 计算内部错误
)

// 模块名称常量
const (
	ModuleStore       = "store"       // 缓存/KV 存储
	ModuleInteraction = "interaction" // 交互日志
	ModuleCatalog     = "catalog"     // 内容目录
	ModuleEngine      = "engine"      // 编排层
	ModuleExperiment  = "experiment"  // 实验层
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT（调用方可见的配置错误）
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }
