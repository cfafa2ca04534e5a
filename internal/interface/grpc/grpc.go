package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/xiebiao/library/pkg/jwt"
)

// Options gRPC服务选项
type Options struct {
	Reflection bool
}

// NewServer 创建gRPC服务：流通服务、健康检查，可选反射
// 返回的health.Server用于关闭前把状态置为NOT_SERVING
func NewServer(srv CirculationServer, jwtManager *jwt.Manager, revocations Revocations, opts Options) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(),
			AuthInterceptor(jwtManager, revocations),
		),
	)

	RegisterCirculationServer(s, srv)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	if opts.Reflection {
		reflection.Register(s)
	}
	return s, healthServer
}
