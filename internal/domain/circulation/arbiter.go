package circulation

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
)

// Transactor 事务执行器
// fn内的仓储操作在同一事务中执行，fn返回error时回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Arbiter 一致性仲裁者
// 所有流通写操作先通过Arbiter锁定书目及其全部副本，再推导状态、校验流转
// 加锁顺序固定为：书目行 → 副本行（按ID升序），避免死锁
// 加锁时的推导和惰性过期只按时钟的今天计算，请求携带的日期不会改变持久化的预约状态
type Arbiter struct {
	clock        Clock
	titles       catalog.TitleRepository
	copies       catalog.CopyRepository
	loans        loan.Repository
	reservations reservation.Repository
}

// NewArbiter 创建仲裁者
func NewArbiter(
	clock Clock,
	titles catalog.TitleRepository,
	copies catalog.CopyRepository,
	loans loan.Repository,
	reservations reservation.Repository,
) *Arbiter {
	return &Arbiter{
		clock:        clock,
		titles:       titles,
		copies:       copies,
		loans:        loans,
		reservations: reservations,
	}
}

// Locked 加锁后的书目视图
type Locked struct {
	Holdings *Holdings
	Snapshot *Snapshot
	AsOf     time.Time
	// Expired 本次读取时顺带过期的预约数量
	Expired int64
}

// LockTitle 锁定书目并按今天推导状态（必须在事务内调用）
// 今天之前已过有效期的预约在这里惰性置为expired
func (a *Arbiter) LockTitle(ctx context.Context, titleID uint) (*Locked, error) {
	asOf := Today(a.clock)
	title, err := a.titles.LockByID(ctx, titleID)
	if err != nil {
		return nil, err
	}

	copies, err := a.copies.LockByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	expired, err := a.reservations.ExpireLapsed(ctx, titleID, asOf)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(copies))
	for _, c := range copies {
		ids = append(ids, c.ID)
	}
	active, err := a.loans.FindActiveByCopies(ctx, ids)
	if err != nil {
		return nil, err
	}
	loans := make(map[uint]*loan.Loan, len(active))
	for _, l := range active {
		loans[l.CopyID] = l
	}

	reservations, err := a.reservations.FindActiveByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	h := &Holdings{
		Title:        title,
		Copies:       copies,
		Loans:        loans,
		Reservations: reservations,
	}
	return &Locked{
		Holdings: h,
		Snapshot: Derive(h, asOf),
		AsOf:     asOf,
		Expired:  expired,
	}, nil
}

// LockCopy 锁定副本所属书目并返回该副本的状态
// 副本归属的书目不可变，先无锁读取副本拿到书目ID是安全的
func (a *Arbiter) LockCopy(ctx context.Context, copyID uint) (*Locked, CopyState, error) {
	c, err := a.copies.FindByID(ctx, copyID)
	if err != nil {
		return nil, CopyState{}, err
	}
	locked, err := a.LockTitle(ctx, c.TitleID)
	if err != nil {
		return nil, CopyState{}, err
	}
	st, ok := locked.Snapshot.Of(copyID)
	if !ok {
		// 加锁前副本被并发删除
		return nil, CopyState{}, catalog.ErrCopyNotFound
	}
	return locked, st, nil
}

// At 按指定日期重新推导，只读投影，不写回任何记录
func (l *Locked) At(asOf time.Time) *Snapshot {
	if asOf.Equal(l.AsOf) {
		return l.Snapshot
	}
	return Derive(l.Holdings, asOf)
}

// Copy 返回已锁定的副本实体
func (l *Locked) Copy(copyID uint) *catalog.Copy {
	return l.Holdings.Copy(copyID)
}
