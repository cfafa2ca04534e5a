package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/civil"
)

const commandTimeout = time.Minute

// withMaintenance 加载配置、组装运维组件后执行fn
func withMaintenance(cmd *cobra.Command, fn func(ctx context.Context, m *Maintenance) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, cleanup, err := InitializeMaintenance(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	return fn(ctx, m)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建/更新数据表",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMaintenance(cmd, func(ctx context.Context, m *Maintenance) error {
			if err := mysql.Migrate(m.DB.WithContext(ctx)); err != nil {
				return err
			}
			log.Info().Msg("数据表已就绪")
			return nil
		})
	},
}

var sweepAsOf string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "执行一次预约过期清理",
	RunE: func(cmd *cobra.Command, args []string) error {
		var asOf time.Time
		if sweepAsOf != "" {
			t, err := civil.Parse(sweepAsOf)
			if err != nil {
				return fmt.Errorf("--as-of格式应为YYYY-MM-DD: %w", err)
			}
			asOf = t
		}
		return withMaintenance(cmd, func(ctx context.Context, m *Maintenance) error {
			resp, err := m.Expirer.Execute(ctx, asOf)
			if err != nil {
				return err
			}
			log.Info().Str("as_of", resp.AsOf).Int64("expired", resp.Expired).Msg("预约过期清理完成")
			return nil
		})
	},
}

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "成员管理",
}

var memberAddCmd = &cobra.Command{
	Use:   "add <patron|operator> <name>",
	Short: "登记读者或馆员",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := member.ParseKind(args[0])
		if err != nil {
			return err
		}
		return withMaintenance(cmd, func(ctx context.Context, m *Maintenance) error {
			mb, err := m.Members.Add(ctx, kind, args[1])
			if err != nil {
				return err
			}
			log.Info().Str("kind", kind.String()).Uint("id", mb.ID).Str("name", mb.Name).Msg("成员已登记")
			return nil
		})
	},
}

var memberSetActiveCmd = &cobra.Command{
	Use:   "set-active <patron|operator> <id> <true|false>",
	Short: "启用或停用成员",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := member.ParseKind(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("无效的成员ID: %s", args[1])
		}
		active, err := strconv.ParseBool(args[2])
		if err != nil {
			return fmt.Errorf("无效的状态: %s", args[2])
		}
		return withMaintenance(cmd, func(ctx context.Context, m *Maintenance) error {
			if err := m.Members.SetActive(ctx, kind, uint(id), active); err != nil {
				return err
			}
			log.Info().Str("kind", kind.String()).Uint64("id", id).Bool("active", active).Msg("成员状态已更新")
			return nil
		})
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepAsOf, "as-of", "", "清理基准日期YYYY-MM-DD，默认今天")
	memberCmd.AddCommand(memberAddCmd, memberSetActiveCmd)
	rootCmd.AddCommand(migrateCmd, sweepCmd, memberCmd)
}
