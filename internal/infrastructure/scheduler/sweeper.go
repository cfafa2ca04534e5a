// Package scheduler 后台定时任务
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xiebiao/library/internal/application/reservation"
)

const sweepLockName = "reservation-sweep"

// Expirer 预约过期清理（reservation.ExpireReservationsUseCase实现）
type Expirer interface {
	Execute(ctx context.Context, asOf time.Time) (*reservation.ExpireReservationsResponse, error)
}

// Guard 分布式互斥（Redis锁实现），为nil时不加锁
type Guard interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// Sweeper 周期性执行预约过期清理
// 多个实例同时运行时，每个周期只有拿到锁的实例执行
type Sweeper struct {
	expirer  Expirer
	guard    Guard
	interval time.Duration
	lockTTL  time.Duration
}

// NewSweeper 创建清理任务
func NewSweeper(expirer Expirer, guard Guard, interval, lockTTL time.Duration) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		guard:    guard,
		interval: interval,
		lockTTL:  lockTTL,
	}
}

// Run 阻塞运行直到ctx取消，interval<=0时直接返回
// 启动时先执行一次
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Info().Msg("未配置清理周期，预约过期清理不启动")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("预约过期清理已启动")
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("预约过期清理失败")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("预约过期清理已停止")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce 执行一次清理，ran为false表示锁被其他实例持有而跳过
func (s *Sweeper) SweepOnce(ctx context.Context) (ran bool, err error) {
	if s.guard != nil {
		release, acquired, err := s.guard.Acquire(ctx, sweepLockName, s.lockTTL)
		if err != nil {
			return false, err
		}
		if !acquired {
			log.Debug().Msg("其他实例正在清理，跳过本轮")
			return false, nil
		}
		defer func() {
			// ctx可能已取消，释放锁用独立的超时
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				log.Warn().Err(err).Msg("释放清理锁失败")
			}
		}()
	}

	resp, err := s.expirer.Execute(ctx, time.Time{})
	if err != nil {
		return true, err
	}
	if resp.Expired > 0 {
		log.Info().Str("as_of", resp.AsOf).Int64("expired", resp.Expired).Msg("预约过期清理完成")
	}
	return true, nil
}
