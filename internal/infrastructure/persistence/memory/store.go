// Package memory 内存版存储
// 实现全部仓储接口与事务语义，用于单元测试和本地开发
// 一个互斥锁串行化所有事务，事务内的写入先落在状态副本上，提交时整体替换
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/domain/returns"
)

type state struct {
	titles       map[uint]catalog.Title
	copies       map[uint]catalog.Copy
	loans        map[uint]loan.Loan
	reservations map[uint]reservation.Reservation
	returns      map[uint]returns.Return
	members      map[member.Kind]map[uint]member.Member

	nextTitleID       uint
	nextCopyID        uint
	nextLoanID        uint
	nextReservationID uint
	nextReturnID      uint
	nextMemberID      map[member.Kind]uint
}

func newState() *state {
	return &state{
		titles:       map[uint]catalog.Title{},
		copies:       map[uint]catalog.Copy{},
		loans:        map[uint]loan.Loan{},
		reservations: map[uint]reservation.Reservation{},
		returns:      map[uint]returns.Return{},
		members: map[member.Kind]map[uint]member.Member{
			member.KindPatron:   {},
			member.KindOperator: {},
		},
		nextMemberID: map[member.Kind]uint{},
	}
}

// clone 实体按值保存，浅拷贝map即可隔离事务
// 实体里的指针字段只会被整体替换，不会原地修改
func (s *state) clone() *state {
	c := &state{
		titles:            make(map[uint]catalog.Title, len(s.titles)),
		copies:            make(map[uint]catalog.Copy, len(s.copies)),
		loans:             make(map[uint]loan.Loan, len(s.loans)),
		reservations:      make(map[uint]reservation.Reservation, len(s.reservations)),
		returns:           make(map[uint]returns.Return, len(s.returns)),
		members:           make(map[member.Kind]map[uint]member.Member, len(s.members)),
		nextTitleID:       s.nextTitleID,
		nextCopyID:        s.nextCopyID,
		nextLoanID:        s.nextLoanID,
		nextReservationID: s.nextReservationID,
		nextReturnID:      s.nextReturnID,
		nextMemberID:      make(map[member.Kind]uint, len(s.nextMemberID)),
	}
	for k, v := range s.titles {
		c.titles[k] = v
	}
	for k, v := range s.copies {
		c.copies[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.returns {
		c.returns[k] = v
	}
	for kind, ms := range s.members {
		cm := make(map[uint]member.Member, len(ms))
		for k, v := range ms {
			cm[k] = v
		}
		c.members[kind] = cm
	}
	for k, v := range s.nextMemberID {
		c.nextMemberID[k] = v
	}
	return c
}

type txKey struct{}

type txState struct {
	store *Store
	state *state
}

// Store 内存存储
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{state: newState()}
}

// Transaction 执行事务，实现circulation.Transactor
// 嵌套调用复用外层事务
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := s.txFrom(ctx); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	txCtx := context.WithValue(ctx, txKey{}, &txState{store: s, state: staged})
	if err := fn(txCtx); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *Store) txFrom(ctx context.Context) (*state, bool) {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok || tx.store != s {
		return nil, false
	}
	return tx.state, true
}

// with 事务内直接使用事务状态，事务外每次调用自成一个事务
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if st, ok := s.txFrom(ctx); ok {
		return fn(st)
	}
	return s.Transaction(ctx, func(ctx context.Context) error {
		st, _ := s.txFrom(ctx)
		return fn(st)
	})
}

// Titles 书目仓储
func (s *Store) Titles() catalog.TitleRepository { return &titleRepo{store: s} }

// Copies 副本仓储
func (s *Store) Copies() catalog.CopyRepository { return &copyRepo{store: s} }

// Loans 借阅仓储
func (s *Store) Loans() loan.Repository { return &loanRepo{store: s} }

// Reservations 预约仓储
func (s *Store) Reservations() reservation.Repository { return &reservationRepo{store: s} }

// Returns 归还记录仓储
func (s *Store) Returns() returns.Repository { return &returnRepo{store: s} }

// Directory 读者/馆员目录
func (s *Store) Directory() member.Directory { return &directory{store: s} }

// Members 成员登记
func (s *Store) Members() member.Registry { return &directory{store: s} }

// paginate 切片分页，page从1开始
func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return items
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
