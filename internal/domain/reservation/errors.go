package reservation

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 预约领域错误定义
var (
	// ErrReservationNotFound 预约不存在
	ErrReservationNotFound = apperrors.New(apperrors.ErrCodeReservationNotFound, "预约不存在")

	// ErrReservationAlreadyActive 副本已有有效预约
	ErrReservationAlreadyActive = apperrors.New(apperrors.ErrCodeReservationAlreadyActive, "副本已有有效预约")

	// ErrReservationNotCancellable 只有有效预约可以取消
	ErrReservationNotCancellable = apperrors.New(apperrors.ErrCodeReservationNotCancellable, "预约不是有效状态，不能取消")

	// ErrReservationNotActive 预约已处于终态
	ErrReservationNotActive = apperrors.New(apperrors.ErrCodeReservationNotCancellable, "预约已处于终态")

	// ErrReservationActive 有效预约不能删除
	ErrReservationActive = apperrors.New(apperrors.ErrCodeReservationActive, "有效预约不能删除，请先取消")

	// ErrNoCopyForTitle 书目没有可预约的副本
	ErrNoCopyForTitle = apperrors.New(apperrors.ErrCodeNoCopyForTitle, "书目没有可预约的副本")

	// ErrTargetRequired 必须指定副本或书目
	ErrTargetRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "必须指定副本或书目")

	// ErrCopyNotReservable 副本状态不允许预约
	ErrCopyNotReservable = apperrors.New(apperrors.ErrCodeCopyUnavailable, "副本当前不可预约")
)
