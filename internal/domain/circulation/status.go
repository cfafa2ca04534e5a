// Package circulation 流通一致性仲裁
// 副本的流通状态不落库，每次都由借阅、预约记录在加锁事务内推导
package circulation

import (
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
)

// Status 副本流通状态（推导值）
type Status int

const (
	StatusAvailable Status = 1 // 可借
	StatusOnLoan    Status = 2 // 借出中
	StatusReserved  Status = 3 // 预约保留中
	StatusDiscarded Status = 4 // 已报废/书目已下架
)

// String 实现Stringer接口
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusOnLoan:
		return "on_loan"
	case StatusReserved:
		return "reserved"
	case StatusDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// CopyState 单个副本的推导结果
type CopyState struct {
	CopyID uint
	Status Status

	// Loan 有效借阅；借阅之后有人排队时状态为reserved，Loan依然非空
	Loan *loan.Loan

	// Reservation 占用该副本的有效预约
	// 借出中时为排在借阅之后的预约，否则为保留副本的预约
	Reservation *reservation.Reservation

	// Matched 书目级预约在读取时按顺序绑定到此副本
	Matched bool
}

// OnLoan 副本是否存在有效借阅
func (s CopyState) OnLoan() bool {
	return s.Loan != nil
}

// ReservedFor 副本是否已为指定读者保留、可以取书
// 预约排在借阅之后时不算，要等归还
func (s CopyState) ReservedFor(patronID uint) bool {
	return s.Status == StatusReserved && !s.OnLoan() && s.Reservation != nil && s.Reservation.PatronID == patronID
}

// HasReservation 副本是否已有有效预约（含借出中排队的）
func (s CopyState) HasReservation() bool {
	return s.Reservation != nil
}
