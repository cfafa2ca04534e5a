package reservation

import (
	"context"
	"time"
)

// Repository 预约仓储接口
type Repository interface {
	// Create 创建预约
	// 同一副本已有有效预约时返回ErrReservationAlreadyActive（数据库唯一约束兜底）
	Create(ctx context.Context, reservation *Reservation) error

	// FindByID 根据ID查找预约
	FindByID(ctx context.Context, id uint) (*Reservation, error)

	// Update 更新状态（以及转借阅时绑定的副本）
	Update(ctx context.Context, reservation *Reservation) error

	// Delete 删除预约记录
	Delete(ctx context.Context, id uint) error

	// FindActiveByTitle 查询书目下全部有效预约（含已绑定副本与排队中的）
	// 按(ReservedOn, ID)升序
	FindActiveByTitle(ctx context.Context, titleID uint) ([]*Reservation, error)

	// ExpireLapsed 将有效期早于asOf的有效预约批量置为过期，返回影响行数
	// titleID为0表示全部书目；重复执行结果相同
	ExpireLapsed(ctx context.Context, titleID uint, asOf time.Time) (int64, error)

	// ListByPatron 分页查询读者的预约（按预约日期倒序）
	ListByPatron(ctx context.Context, patronID uint, page, pageSize int) ([]*Reservation, int64, error)
}
