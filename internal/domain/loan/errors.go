package loan

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrLoanNotFound 借阅记录不存在
	ErrLoanNotFound = apperrors.New(apperrors.ErrCodeLoanNotFound, "借阅记录不存在")

	// ErrCopyUnavailable 副本当前不可借
	ErrCopyUnavailable = apperrors.New(apperrors.ErrCodeCopyUnavailable, "副本当前不可借")

	// ErrLoanAlreadyReturned 借阅已归还
	ErrLoanAlreadyReturned = apperrors.New(apperrors.ErrCodeLoanAlreadyReturned, "借阅已归还")

	// ErrLoanAlreadyCancelled 借阅已取消
	ErrLoanAlreadyCancelled = apperrors.New(apperrors.ErrCodeLoanAlreadyCancelled, "借阅已取消")

	// ErrLoanActive 借阅进行中，不能删除
	ErrLoanActive = apperrors.New(apperrors.ErrCodeLoanActive, "借阅进行中，请先登记归还")

	// ErrInvalidDueDate 应还日期不合法
	ErrInvalidDueDate = apperrors.New(apperrors.ErrCodeInvalidParams, "应还日期不能早于借出日期")

	// ErrInvalidReturnDate 归还日期不合法
	ErrInvalidReturnDate = apperrors.New(apperrors.ErrCodeInvalidParams, "归还日期不能早于借出日期")
)
