package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Feature 错误：LOAD_FAILED, NOT_FOUND
//   - Model 错误：UNAVAILABLE, CONTRACT_VIOLATION
//   - Registry 错误：NOT_FOUND, LOAD_FAILED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "CONTRACT_VIOLATION"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "feature", "model"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
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
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 排序链路专用错误代码
	ErrorCodeLoadFailed        = "LOAD_FAILED"        // 快照/模型加载失败
	ErrorCodeContractViolation = "CONTRACT_VIOLATION" // 打分契约被破坏（特征列不匹配）
	ErrorCodeTimeout           = "TIMEOUT"            // 请求超时（排序必须整批完成）
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleFeature  = "feature"  // 特征模块
	ModuleModel    = "model"    // 模型模块
	ModuleRegistry = "registry" // 模型注册表模块
	ModuleRank     = "rank"     // 排序模块
	ModuleService  = "service"  // 服务模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsLoadFailed 检查错误是否为 LOAD_FAILED（快照或模型加载失败）
func IsLoadFailed(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeLoadFailed
	}
	return false
}

// IsContractViolation 检查错误是否为打分契约破坏（特征矩阵与模型列清单不匹配）。
// 这类错误说明特征快照与模型版本不一致，属于部署层面的问题，应告警而非重试。
func IsContractViolation(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeContractViolation
	}
	return false
}

// IsTimeout 检查错误是否为请求超时
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeTimeout
	}
	return false
}

// IsInvalidInput 检查错误是否为输入无效
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
