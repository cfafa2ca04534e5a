package catalog

import (
	"context"
)

// TitleRepository 书目仓储接口
// 事务通过context传递，实现方需从context中取事务句柄
type TitleRepository interface {
	// Create 创建书目
	Create(ctx context.Context, title *Title) error

	// FindByID 根据ID查找书目
	FindByID(ctx context.Context, id uint) (*Title, error)

	// LockByID 悲观锁查询书目(SELECT FOR UPDATE)
	// 同一书目下的所有流通操作以此串行化
	LockByID(ctx context.Context, id uint) (*Title, error)

	// Update 更新书目（名称、状态）
	Update(ctx context.Context, title *Title) error
}

// CopyRepository 副本仓储接口
type CopyRepository interface {
	// Create 创建副本
	// 外部编码重复时返回ErrDuplicateCode
	Create(ctx context.Context, copy *Copy) error

	// FindByID 根据ID查找副本
	FindByID(ctx context.Context, id uint) (*Copy, error)

	// ListByTitle 查询书目下的全部副本（按ID升序）
	ListByTitle(ctx context.Context, titleID uint) ([]*Copy, error)

	// LockByTitle 锁定书目下的全部副本（按ID升序加锁，避免死锁）
	LockByTitle(ctx context.Context, titleID uint) ([]*Copy, error)

	// Delete 删除副本
	Delete(ctx context.Context, id uint) error

	// DiscardByTitle 将书目下所有副本标记为报废，返回影响行数
	DiscardByTitle(ctx context.Context, titleID uint) (int64, error)
}
