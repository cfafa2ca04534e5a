// Package report 流通统计报表（只读）
package report

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/circulation"
)

// OverdueLoan 逾期借阅
type OverdueLoan struct {
	LoanID      uint      `db:"loan_id" json:"loan_id"`
	CopyID      uint      `db:"copy_id" json:"copy_id"`
	TitleID     uint      `db:"title_id" json:"title_id"`
	TitleName   string    `db:"title_name" json:"title_name"`
	PatronID    uint      `db:"patron_id" json:"patron_id"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	DaysOverdue int       `db:"-" json:"days_overdue"`
}

// Summary 流通概况
type Summary struct {
	Titles             int64  `db:"titles" json:"titles"`
	CirculatingCopies  int64  `db:"circulating_copies" json:"circulating_copies"`
	DiscardedCopies    int64  `db:"discarded_copies" json:"discarded_copies"`
	ActiveLoans        int64  `db:"active_loans" json:"active_loans"`
	OverdueLoans       int64  `db:"overdue_loans" json:"overdue_loans"`
	ActiveReservations int64  `db:"active_reservations" json:"active_reservations"`
	QueuedReservations int64  `db:"queued_reservations" json:"queued_reservations"`
	ReturnsRegistered  int64  `db:"returns_registered" json:"returns_registered"`
	AsOf               string `db:"-" json:"as_of"`
}

// Reader 报表查询接口（由SQL查询构建器实现）
type Reader interface {
	OverdueLoans(ctx context.Context, asOf time.Time, limit int) ([]OverdueLoan, error)
	Summary(ctx context.Context, asOf time.Time) (*Summary, error)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// UseCase 报表用例
type UseCase struct {
	reader Reader
	clock  circulation.Clock
}

// NewUseCase 创建报表用例
func NewUseCase(reader Reader, clock circulation.Clock) *UseCase {
	return &UseCase{reader: reader, clock: clock}
}

// Overdue 截至asOf的逾期借阅，按应还日期升序
func (uc *UseCase) Overdue(ctx context.Context, asOf time.Time, limit int) ([]OverdueLoan, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	day := circulation.DateOr(asOf, uc.clock)

	items, err := uc.reader.OverdueLoans(ctx, day, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].DaysOverdue = int(day.Sub(items[i].DueDate).Hours() / 24)
	}
	return items, nil
}

// Summary 流通概况
func (uc *UseCase) Summary(ctx context.Context, asOf time.Time) (*Summary, error) {
	day := circulation.DateOr(asOf, uc.clock)
	s, err := uc.reader.Summary(ctx, day)
	if err != nil {
		return nil, err
	}
	s.AsOf = day.Format("2006-01-02")
	return s, nil
}
