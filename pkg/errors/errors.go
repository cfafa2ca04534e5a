package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较
// 预定义错误是指针，Wrap/WithDetail会产生新实例，所以按Code判等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind 错误分类（由错误码区间推导）
func (e *AppError) Kind() Kind {
	return KindOf(e.Code)
}

// WithDetail 基于预定义错误生成带上下文说明的新错误
// 错误码不变，errors.Is仍然成立
func (e *AppError) WithDetail(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
		Err:     e.Err,
	}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Transient 包装可重试的存储层错误（锁等待超时、死锁、连接中断）
func Transient(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTransient,
		Message: ErrTransient.Message,
		Err:     err,
	}
}

// =========================================
// 错误分类
// =========================================

// Kind 错误类别
// 业务失败（NotFound/Conflict/PreconditionFailed/AlreadyTerminal）同步返回给调用方，不自动重试；
// Transient可以用相同参数重试
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindPreconditionFailed
	KindAlreadyTerminal
	KindInvalidParams
	KindUnauthorized
	KindForbidden
	KindTransient
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindPreconditionFailed:
		return "PreconditionFailed"
	case KindAlreadyTerminal:
		return "AlreadyTerminal"
	case KindInvalidParams:
		return "InvalidParams"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindTransient:
		return "Transient"
	case KindBusiness:
		return "Business"
	default:
		return "Internal"
	}
}

// KindOf 根据错误码区间判断类别
func KindOf(code int) Kind {
	switch {
	case code == ErrCodeTransient:
		return KindTransient
	case code == ErrCodeForbidden:
		return KindForbidden
	case code >= 40100 && code < 40200:
		return KindUnauthorized
	case code >= 40400 && code < 40500:
		return KindNotFound
	case code >= 40010 && code < 40020:
		return KindConflict
	case code >= 40020 && code < 40030:
		return KindPreconditionFailed
	case code >= 40030 && code < 40040:
		return KindAlreadyTerminal
	case code >= 40900 && code < 41000:
		return KindInvalidParams
	case code >= 40000 && code < 40100:
		return KindBusiness
	default:
		return KindInternal
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeTransient     = 50003 // 暂时性错误（可重试）

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized = 40100 // 未登录
	ErrCodeInvalidToken = 40101 // Token无效
	ErrCodeTokenExpired = 40102 // Token过期
	ErrCodeForbidden    = 40104 // 无权限

	// 资源不存在（40400-40499）
	ErrCodeNotFound            = 40400 // 资源不存在(通用)
	ErrCodeTitleNotFound       = 40401 // 书目不存在
	ErrCodeCopyNotFound        = 40402 // 馆藏副本不存在
	ErrCodeLoanNotFound        = 40403 // 借阅记录不存在
	ErrCodeReservationNotFound = 40404 // 预约不存在
	ErrCodePatronNotFound      = 40405 // 读者不存在
	ErrCodeOperatorNotFound    = 40406 // 馆员不存在

	// 业务规则错误（40000-40009）
	ErrCodeBusinessError = 40000 // 业务错误(通用)

	// 冲突（40010-40019）：违反"每个副本至多一个有效占用"
	ErrCodeCopyUnavailable          = 40010 // 副本不可借
	ErrCodeReservationAlreadyActive = 40011 // 副本已有有效预约
	ErrCodeCopyOnLoan               = 40012 // 副本借出中
	ErrCodeDuplicateCode            = 40013 // 外部编码重复
	ErrCodeReturnAlreadyRegistered  = 40014 // 归还记录已存在
	ErrCodeNoCopyForTitle           = 40015 // 书目没有可预约副本
	ErrCodeCopyReserved             = 40016 // 副本被预约占用
	ErrCodeLoanActive               = 40017 // 借阅仍在进行中
	ErrCodeReservationActive        = 40018 // 预约仍然有效

	// 前置条件不满足（40020-40029）
	ErrCodeTitleDelisted    = 40020 // 书目已下架
	ErrCodePatronInactive   = 40021 // 读者已停用
	ErrCodeOperatorInactive = 40022 // 馆员已停用

	// 已处于终态（40030-40039）
	ErrCodeLoanAlreadyReturned       = 40030 // 借阅已归还
	ErrCodeLoanAlreadyCancelled      = 40031 // 借阅已取消
	ErrCodeReservationNotCancellable = 40032 // 预约不可取消

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrTransient     = New(ErrCodeTransient, "系统繁忙，请稍后重试")

	// 认证授权
	ErrUnauthorized = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired = New(ErrCodeTokenExpired, "Token已过期")
	ErrForbidden    = New(ErrCodeForbidden, "无权限访问")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// IsTransient 判断是否为可重试错误
func IsTransient(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind() == KindTransient
	}
	return false
}
