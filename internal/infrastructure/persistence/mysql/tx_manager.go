package mysql

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
)

// TxManager 事务管理器
// 要点:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. 死锁/锁等待超时按指数退避重试整个事务，业务错误不重试
type TxManager struct {
	db         *gorm.DB
	maxRetries int
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB, maxRetries int) *TxManager {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TxManager{db: db, maxRetries: maxRetries}
}

// Transaction 执行事务
// fn内的所有Repository操作都在同一事务中执行，返回error时ROLLBACK，nil时COMMIT
// fn可能被执行多次，闭包外的状态需要在fn开头重置
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    locked, st, err := arbiter.LockCopy(ctx, copyID)
//	    if err != nil {
//	        return err
//	    }
//	    return loanRepo.Create(ctx, l) // nil则提交,非nil则回滚
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// 已在事务内：直接复用，由最外层负责提交与重试
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	attempt := func() error {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		switch {
		case err == nil:
			return nil
		case isTransient(err):
			return apperrors.Transient(err)
		case apperrors.IsTransient(err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(m.maxRetries)), ctx)

	return backoff.RetryNotify(attempt, b, func(err error, wait time.Duration) {
		metrics.IncTxRetry()
		log.Warn().Err(err).Dur("wait", wait).Msg("事务冲突，准备重试")
	})
}
