// library 图书馆流通服务
//
//	library serve                      启动HTTP/gRPC服务和后台预约清理
//	library migrate                    建表
//	library sweep --as-of 2024-01-10   执行一次预约过期清理
//	library member add operator 张三    登记成员
//
// @title                      图书馆流通服务API
// @version                    1.0
// @description                馆藏副本的借出、归还与预约
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "library",
	Short:         "图书馆流通服务",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认config/config.yaml）")
}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if _, err := logger.Init(cfg.Tracing.ServiceName, logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("命令执行失败")
		os.Exit(1)
	}
}
