package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xiebiao/library/internal/interface/grpc"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP/gRPC服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		metrics.InitMetrics()
		shutdownTracer := func(context.Context) error { return nil }
		if cfg.Tracing.Endpoint != "" {
			shutdownTracer, err = tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			if err != nil {
				return fmt.Errorf("初始化链路追踪失败: %w", err)
			}
		}

		app, cleanup, err := InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("初始化应用失败: %w", err)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = run(ctx, app)

		tracerCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if terr := shutdownTracer(tracerCtx); terr != nil {
			log.Warn().Err(terr).Msg("关闭链路追踪失败")
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// run 启动HTTP、gRPC和后台清理，ctx取消后优雅关闭
func run(ctx context.Context, app *App) error {
	cfg := app.Config
	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP服务启动")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	})

	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("gRPC监听失败: %w", err)
		}
		g.Go(func() error {
			log.Info().Str("addr", lis.Addr().String()).Msg("gRPC服务启动")
			return app.GRPC.Serve(lis)
		})
	}

	g.Go(func() error {
		app.Sweeper.Run(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("正在关闭服务...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		app.GRPC.Health.SetServingStatus(grpc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		app.GRPC.GracefulStop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP服务关闭失败: %w", err)
		}
		log.Info().Msg("服务已关闭")
		return nil
	})

	return g.Wait()
}
