package catalog

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 书目与副本领域错误定义
var (
	// ErrTitleNotFound 书目不存在
	ErrTitleNotFound = apperrors.New(apperrors.ErrCodeTitleNotFound, "书目不存在")

	// ErrCopyNotFound 副本不存在
	ErrCopyNotFound = apperrors.New(apperrors.ErrCodeCopyNotFound, "馆藏副本不存在")

	// ErrDuplicateCode 外部编码已存在
	ErrDuplicateCode = apperrors.New(apperrors.ErrCodeDuplicateCode, "副本外部编码已存在")

	// ErrTitleDelisted 书目已下架
	ErrTitleDelisted = apperrors.New(apperrors.ErrCodeTitleDelisted, "书目已下架")

	// ErrCopyOnLoan 副本借出中，不能删除
	ErrCopyOnLoan = apperrors.New(apperrors.ErrCodeCopyOnLoan, "副本借出中")

	// ErrCopyReserved 副本被有效预约占用，不能删除
	ErrCopyReserved = apperrors.New(apperrors.ErrCodeCopyReserved, "副本已被预约")

	// ErrInvalidTitle 书目参数不合法
	ErrInvalidTitle = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空")

	// ErrInvalidDisposition 处置状态不合法
	ErrInvalidDisposition = apperrors.New(apperrors.ErrCodeInvalidParams, "处置状态只能是circulating或discarded")

	// ErrInvalidCode 外部编码不合法
	ErrInvalidCode = apperrors.New(apperrors.ErrCodeInvalidParams, "外部编码不能为空")
)
