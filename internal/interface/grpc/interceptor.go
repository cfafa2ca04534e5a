package grpc

import (
	"context"
	"path"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/xiebiao/library/internal/domain/member"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// Revocations 已吊销Token查询
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// methodCapabilities 各方法需要的能力，不在表中的方法（health、reflection）不做认证
var methodCapabilities = map[string]member.Capability{
	"StatusOf":           member.CapViewOwn,
	"CreateLoan":         member.CapCirculate,
	"CancelLoan":         member.CapCirculate,
	"RegisterReturn":     member.CapCirculate,
	"CreateReservation":  member.CapReserve,
	"CancelReservation":  member.CapReserve,
	"ExpireReservations": member.CapSweep,
}

// AuthInterceptor 从authorization元数据解析JWT，把参与者写入ctx
func AuthInterceptor(jwtManager *jwt.Manager, revocations Revocations) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := splitMethod(info.FullMethod)
		if service != ServiceName {
			return handler(ctx, req)
		}
		capability, ok := methodCapabilities[method]
		if !ok {
			return nil, status.Errorf(codes.Unimplemented, "未知方法: %s", method)
		}

		actor, err := authenticate(ctx, jwtManager, revocations)
		if err != nil {
			return nil, toStatus(err)
		}
		if !actor.Can(capability) {
			return nil, toStatus(apperrors.ErrForbidden.WithDetail("缺少%s权限", capability))
		}
		return handler(member.NewContext(ctx, actor), req)
	}
}

func authenticate(ctx context.Context, jwtManager *jwt.Manager, revocations Revocations) (member.Actor, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 || values[0] == "" {
		return member.Actor{}, apperrors.ErrUnauthorized
	}

	parts := strings.SplitN(values[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return member.Actor{}, apperrors.ErrInvalidToken
	}

	claims, err := jwtManager.Parse(parts[1])
	if err != nil {
		return member.Actor{}, err
	}
	if revocations != nil && claims.ID != "" {
		revoked, err := revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return member.Actor{}, err
		}
		if revoked {
			return member.Actor{}, apperrors.ErrTokenExpired
		}
	}

	kind, err := member.ParseKind(claims.Role)
	if err != nil {
		return member.Actor{}, apperrors.ErrInvalidToken
	}
	id, err := claims.MemberID()
	if err != nil {
		return member.Actor{}, err
	}
	return member.NewActor(kind, id), nil
}

// LoggingInterceptor 记录调用日志和指标，并把panic转为Internal
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		_, method := splitMethod(info.FullMethod)

		md, _ := metadata.FromIncomingContext(ctx)
		ctx, span := tracing.Inbound(ctx, metadataCarrier(md), info.FullMethod)
		traceID := tracing.TraceID(ctx)

		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Str("method", info.FullMethod).
					Msg("gRPC调用panic")
				err = status.Error(codes.Internal, "系统内部错误")
			}

			code := status.Code(err)
			duration := time.Since(start)
			tracing.EndSpan(span, err)
			metrics.ObserveGRPCRequest(method, code.String(), duration)

			event := log.Info()
			if code != codes.OK {
				event = log.Warn().Str("error", status.Convert(err).Message())
			}
			event.
				Str("method", info.FullMethod).
				Str("trace_id", traceID).
				Str("code", code.String()).
				Dur("latency", duration).
				Msg("gRPC调用")
		}()

		return handler(ctx, req)
	}
}

// metadataCarrier 让propagation从gRPC metadata读取traceparent
type metadataCarrier metadata.MD

func (m metadataCarrier) Get(key string) string {
	if v := metadata.MD(m).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (m metadataCarrier) Set(key, value string) { metadata.MD(m).Set(key, value) }

func (m metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func splitMethod(fullMethod string) (service, method string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	return path.Dir(fullMethod), path.Base(fullMethod)
}
