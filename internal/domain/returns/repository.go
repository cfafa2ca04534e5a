package returns

import "context"

// Repository 归还记录仓储接口
type Repository interface {
	// Create 创建归还记录
	// loan_id唯一约束冲突时返回ErrReturnAlreadyRegistered
	Create(ctx context.Context, ret *Return) error

	// FindByLoanID 根据借阅ID查找归还记录
	FindByLoanID(ctx context.Context, loanID uint) (*Return, error)
}
