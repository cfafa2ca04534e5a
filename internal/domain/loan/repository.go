package loan

import (
	"context"
)

// Repository 借阅仓储接口
type Repository interface {
	// Create 创建借阅
	// 同一副本已有借出中的记录时返回ErrCopyUnavailable（数据库唯一约束兜底）
	Create(ctx context.Context, loan *Loan) error

	// FindByID 根据ID查找借阅
	FindByID(ctx context.Context, id uint) (*Loan, error)

	// LockByID 悲观锁查询借阅
	LockByID(ctx context.Context, id uint) (*Loan, error)

	// Update 更新状态与归还日期
	Update(ctx context.Context, loan *Loan) error

	// Delete 删除借阅记录
	Delete(ctx context.Context, id uint) error

	// FindActiveByCopies 查询一组副本上借出中的借阅
	FindActiveByCopies(ctx context.Context, copyIDs []uint) ([]*Loan, error)

	// ListByPatron 分页查询读者的借阅（按借出日期倒序）
	ListByPatron(ctx context.Context, patronID uint, page, pageSize int) ([]*Loan, int64, error)
}
