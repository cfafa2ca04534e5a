package main

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/infrastructure/scheduler"
	grpcapi "github.com/xiebiao/library/internal/interface/grpc"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
	"github.com/xiebiao/library/pkg/jwt"
)

// App serve命令运行的全部组件
type App struct {
	Config  *config.Config
	Engine  *gin.Engine
	GRPC    *GRPCServer
	Sweeper *scheduler.Sweeper
}

// GRPCServer gRPC服务及其健康检查
type GRPCServer struct {
	*grpc.Server
	Health *health.Server
}

// Maintenance 运维命令（migrate/sweep/member）使用的组件，不依赖Redis
type Maintenance struct {
	DB      *gorm.DB
	Members member.Registry
	Expirer scheduler.Expirer
}

func provideClock() circulation.Clock {
	return circulation.SystemClock{}
}

func provideTxManager(cfg *config.Config, db *gorm.DB) *mysql.TxManager {
	return mysql.NewTxManager(db, cfg.Database.TxMaxRetries)
}

func provideDirectory(registry member.Registry) member.Directory {
	return registry
}

func provideValidityPolicy(cfg *config.Config) reservation.ValidityPolicy {
	return reservation.NewValidityPolicy(cfg.Circulation.ReservationValidityDays)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
}

// provideRedis 创建Redis客户端，cleanup关闭连接池
func provideRedis(cfg *config.Config) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideSweeper(cfg *config.Config, expirer scheduler.Expirer, guard scheduler.Guard) *scheduler.Sweeper {
	return scheduler.NewSweeper(expirer, guard, cfg.Circulation.SweepInterval, cfg.Circulation.SweepLockTTL)
}

// provideGinEngine Swagger只在非release模式开放
func provideGinEngine(cfg *config.Config, auth *middleware.AuthMiddleware, h router.Handlers) *gin.Engine {
	return router.New(router.Options{
		Mode:    cfg.Server.Mode,
		Swagger: cfg.Server.Mode != gin.ReleaseMode,
	}, auth, h)
}

func provideGRPCServer(cfg *config.Config, srv grpcapi.CirculationServer, jwtManager *jwt.Manager, revocations grpcapi.Revocations) *GRPCServer {
	s, healthServer := grpcapi.NewServer(srv, jwtManager, revocations, grpcapi.Options{Reflection: cfg.GRPC.Reflection})
	return &GRPCServer{Server: s, Health: healthServer}
}
