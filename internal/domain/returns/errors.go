package returns

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var (
	// ErrReturnAlreadyRegistered 同一借阅重复登记归还
	ErrReturnAlreadyRegistered = apperrors.New(apperrors.ErrCodeReturnAlreadyRegistered, "该借阅已登记归还")

	// ErrReturnNotFound 归还记录不存在
	ErrReturnNotFound = apperrors.New(apperrors.ErrCodeNotFound, "归还记录不存在")
)
