package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/mq"
)

var tokenCmd = &cobra.Command{
	Use:   "token <patron|operator> <id>",
	Short: "签发测试用访问Token（仅限非release模式）",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("release模式下不允许签发Token")
		}
		kind, err := member.ParseKind(args[0])
		if err != nil {
			return err
		}
		var id uint
		if _, err := fmt.Sscanf(args[1], "%d", &id); err != nil || id == 0 {
			return fmt.Errorf("无效的成员ID: %s", args[1])
		}

		token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire).Issue(kind.String(), id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "流通事件",
}

var tailQueue string

var eventsTailCmd = &cobra.Command{
	Use:   "tail [routing-key...]",
	Short: "订阅并打印流通事件，默认订阅全部（#）",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.MQ.URL == "" {
			return fmt.Errorf("未配置mq.url")
		}
		keys := args
		if len(keys) == 0 {
			keys = []string{"#"}
		}

		consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTopic, tailQueue, keys)
		if err != nil {
			return err
		}
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return consumer.Consume(ctx, func(ctx context.Context, d mq.Delivery) error {
			var evt circulation.Event
			if err := d.Decode(&evt); err != nil {
				// 格式错误的消息重新入队也无法处理，记录后丢弃
				log.Error().Err(err).Str("message_id", d.MessageID).Msg("无法解析的事件")
				return nil
			}
			log.Info().
				Str("event", string(evt.Type)).
				Time("occurred_at", evt.OccurredAt).
				Interface("payload", evt.Payload).
				Msg("流通事件")
			return nil
		})
	},
}

func init() {
	eventsTailCmd.Flags().StringVar(&tailQueue, "queue", "", "持久化队列名，为空时使用临时队列")
	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(tokenCmd, eventsCmd)
}
