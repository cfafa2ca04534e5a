package grpc

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// errorDomain ErrorInfo.Domain
const errorDomain = "library.circulation"

// Code 错误类别对应的gRPC状态码
func Code(kind apperrors.Kind) codes.Code {
	switch kind {
	case apperrors.KindNotFound:
		return codes.NotFound
	case apperrors.KindConflict:
		return codes.Aborted
	case apperrors.KindPreconditionFailed, apperrors.KindAlreadyTerminal, apperrors.KindBusiness:
		return codes.FailedPrecondition
	case apperrors.KindInvalidParams:
		return codes.InvalidArgument
	case apperrors.KindUnauthorized:
		return codes.Unauthenticated
	case apperrors.KindForbidden:
		return codes.PermissionDenied
	case apperrors.KindTransient:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// toStatus 业务错误转为带ErrorInfo的gRPC状态
// Reason为错误类别，Metadata.code为业务错误码
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && !apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	appErr := apperrors.GetAppError(err)
	kind := appErr.Kind()
	if appErr.Err != nil && (kind == apperrors.KindInternal || kind == apperrors.KindTransient) {
		log.Error().Err(appErr.Err).Int("code", appErr.Code).Msg(appErr.Message)
	}

	st := status.New(Code(kind), appErr.Message)
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   kind.String(),
		Domain:   errorDomain,
		Metadata: map[string]string{"code": strconv.Itoa(appErr.Code)},
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}
