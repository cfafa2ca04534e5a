//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"

	appcopy "github.com/xiebiao/library/internal/application/copy"
	apploan "github.com/xiebiao/library/internal/application/loan"
	appreport "github.com/xiebiao/library/internal/application/report"
	appreservation "github.com/xiebiao/library/internal/application/reservation"
	appreturns "github.com/xiebiao/library/internal/application/returns"
	apptitle "github.com/xiebiao/library/internal/application/title"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/messaging"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/infrastructure/scheduler"
	grpcapi "github.com/xiebiao/library/internal/interface/grpc"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
)

// infrastructureSet 数据库、事务、事件发布、时钟
var infrastructureSet = wire.NewSet(
	mysql.NewDB,
	provideTxManager,
	wire.Bind(new(circulation.Transactor), new(*mysql.TxManager)),
	messaging.NewPublisher,
	provideClock,
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	mysql.NewTitleRepository,
	mysql.NewCopyRepository,
	mysql.NewLoanRepository,
	mysql.NewReservationRepository,
	mysql.NewReturnRepository,
	mysql.NewMemberRepository,
	mysql.NewReportReader,
	provideDirectory,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	circulation.NewArbiter,
	provideValidityPolicy,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	apptitle.NewUseCase,
	appcopy.NewRegisterCopyUseCase,
	appcopy.NewStatusOfUseCase,
	appcopy.NewDeleteCopyUseCase,
	apploan.NewCreateLoanUseCase,
	apploan.NewCancelLoanUseCase,
	apploan.NewQueryUseCase,
	appreturns.NewRegisterReturnUseCase,
	appreservation.NewCreateReservationUseCase,
	appreservation.NewCancelReservationUseCase,
	appreservation.NewExpireReservationsUseCase,
	appreservation.NewQueryUseCase,
	appreport.NewUseCase,
	wire.Bind(new(scheduler.Expirer), new(*appreservation.ExpireReservationsUseCase)),
)

// redisSet Token黑名单与分布式锁
var redisSet = wire.NewSet(
	provideRedis,
	redis.NewTokenBlacklist,
	redis.NewLocker,
	wire.Bind(new(middleware.Revocations), new(*redis.TokenBlacklist)),
	wire.Bind(new(handler.Revoker), new(*redis.TokenBlacklist)),
	wire.Bind(new(grpcapi.Revocations), new(*redis.TokenBlacklist)),
	wire.Bind(new(scheduler.Guard), new(*redis.Locker)),
	provideSweeper,
)

// interfaceSet HTTP与gRPC接口
var interfaceSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	handler.NewAuthHandler,
	handler.NewCatalogHandler,
	handler.NewLoanHandler,
	handler.NewReservationHandler,
	handler.NewReportHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideGinEngine,
	wire.Struct(new(grpcapi.UseCases), "*"),
	grpcapi.NewCirculationServer,
	wire.Bind(new(grpcapi.CirculationServer), new(*grpcapi.Server)),
	provideGRPCServer,
)

// InitializeApp 组装serve命令的全部组件
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		redisSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeMaintenance 组装运维命令的组件
func InitializeMaintenance(cfg *config.Config) (*Maintenance, func(), error) {
	wire.Build(
		infrastructureSet,
		mysql.NewReservationRepository,
		mysql.NewMemberRepository,
		appreservation.NewExpireReservationsUseCase,
		wire.Bind(new(scheduler.Expirer), new(*appreservation.ExpireReservationsUseCase)),
		wire.Struct(new(Maintenance), "*"),
	)
	return nil, nil, nil
}
