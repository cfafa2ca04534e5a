package member

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	// ErrMemberNotFound 目录查找未命中（仓储层使用）
	ErrMemberNotFound = apperrors.New(apperrors.ErrCodeNotFound, "成员不存在")

	ErrPatronNotFound   = apperrors.New(apperrors.ErrCodePatronNotFound, "读者不存在")
	ErrPatronInactive   = apperrors.New(apperrors.ErrCodePatronInactive, "读者已停用")
	ErrOperatorNotFound = apperrors.New(apperrors.ErrCodeOperatorNotFound, "馆员不存在")
	ErrOperatorInactive = apperrors.New(apperrors.ErrCodeOperatorInactive, "馆员已停用")
)
