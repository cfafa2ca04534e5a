package loan

import (
	"time"

	"github.com/xiebiao/library/pkg/civil"
)

// Status 借阅状态
// 状态流转：active → returned / active → cancelled，两个终态
type Status int

const (
	StatusActive    Status = 1 // 借出中
	StatusReturned  Status = 2 // 已归还
	StatusCancelled Status = 3 // 已取消
)

// String 实现Stringer接口
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusReturned:
		return "returned"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Loan 借阅实体（聚合根）
// CopyID、PatronID、OperatorID创建后不可变，只有状态和日期字段会变化
type Loan struct {
	ID           uint
	CopyID       uint
	PatronID     uint
	OperatorID   uint
	CheckoutDate time.Time
	DueDate      time.Time
	ReturnedOn   *time.Time
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewLoan 创建借阅（工厂方法）
// 业务规则：应还日期不能早于借出日期
func NewLoan(copyID, patronID, operatorID uint, checkoutDate, dueDate time.Time) (*Loan, error) {
	checkout := civil.Date(checkoutDate)
	due := civil.Date(dueDate)
	if due.Before(checkout) {
		return nil, ErrInvalidDueDate
	}

	now := time.Now()
	return &Loan{
		CopyID:       copyID,
		PatronID:     patronID,
		OperatorID:   operatorID,
		CheckoutDate: checkout,
		DueDate:      due,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsActive 是否借出中
func (l *Loan) IsActive() bool {
	return l.Status == StatusActive
}

// IsOverdue 截至asOf是否逾期
func (l *Loan) IsOverdue(asOf time.Time) bool {
	return l.IsActive() && l.DueDate.Before(civil.Date(asOf))
}

// ensureActive 终态不允许再流转
func (l *Loan) ensureActive() error {
	switch l.Status {
	case StatusActive:
		return nil
	case StatusReturned:
		return ErrLoanAlreadyReturned
	default:
		return ErrLoanAlreadyCancelled
	}
}

// Return 归还（领域行为）
func (l *Loan) Return(returnDate time.Time) error {
	if err := l.ensureActive(); err != nil {
		return err
	}
	date := civil.Date(returnDate)
	if date.Before(l.CheckoutDate) {
		return ErrInvalidReturnDate
	}
	l.Status = StatusReturned
	l.ReturnedOn = &date
	l.UpdatedAt = time.Now()
	return nil
}

// Cancel 取消借阅（领域行为）
// 取消后副本状态自动重新推导，不需要额外写副本
func (l *Loan) Cancel() error {
	if err := l.ensureActive(); err != nil {
		return err
	}
	l.Status = StatusCancelled
	l.UpdatedAt = time.Now()
	return nil
}
