package loan

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CreateLoanUseCase 借出用例
// 核心问题：两个并发借阅请求同时看到副本"可借"
// 解决：在同一事务里锁定书目及其全部副本 → 推导状态 → 校验 → 写借阅
type CreateLoanUseCase struct {
	tx           circulation.Transactor
	arbiter      *circulation.Arbiter
	loans        loan.Repository
	reservations reservation.Repository
	directory    member.Directory
	publisher    circulation.Publisher
	clock        circulation.Clock
}

// NewCreateLoanUseCase 创建借出用例
func NewCreateLoanUseCase(
	tx circulation.Transactor,
	arbiter *circulation.Arbiter,
	loans loan.Repository,
	reservations reservation.Repository,
	directory member.Directory,
	publisher circulation.Publisher,
	clock circulation.Clock,
) *CreateLoanUseCase {
	return &CreateLoanUseCase{
		tx:           tx,
		arbiter:      arbiter,
		loans:        loans,
		reservations: reservations,
		directory:    directory,
		publisher:    publisher,
		clock:        clock,
	}
}

// CreateLoanRequest 借出请求DTO
type CreateLoanRequest struct {
	CopyID       uint
	PatronID     uint
	OperatorID   uint      // 办理借出的馆员（从JWT中提取）
	CheckoutDate time.Time // 零值表示今天
	DueDate      time.Time
}

// CreateLoanResponse 借出响应DTO
type CreateLoanResponse struct {
	Loan LoanView `json:"loan"`
	// FulfilledReservationID 借出时兑现的预约
	FulfilledReservationID uint   `json:"fulfilled_reservation_id,omitempty"`
	CopyStatus             string `json:"copy_status"`
}

// Execute 执行借出
// 前置条件按顺序检查，第一个失败即返回：
//  1. 副本存在，书目未下架且副本未报废
//  2. 副本可借，或者正为本读者保留（对应预约同时转为fulfilled）
//  3. 读者存在且启用
//  4. 馆员存在且启用
func (uc *CreateLoanUseCase) Execute(ctx context.Context, req CreateLoanRequest) (resp *CreateLoanResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateLoan")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("create_loan", start, err)
		tracing.EndSpan(span, err)
	}()

	if req.CopyID == 0 || req.PatronID == 0 || req.OperatorID == 0 {
		return nil, apperrors.ErrInvalidParams.WithDetail("copy_id、patron_id、operator_id必填")
	}
	if req.DueDate.IsZero() {
		return nil, apperrors.ErrInvalidParams.WithDetail("due_date必填")
	}
	checkout := circulation.DateOr(req.CheckoutDate, uc.clock)
	if _, err := loan.NewLoan(req.CopyID, req.PatronID, req.OperatorID, checkout, req.DueDate); err != nil {
		return nil, err
	}

	var (
		created   *loan.Loan
		fulfilled *reservation.Reservation
		expired   int64
	)
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		// 事务可能被重试，闭包内的状态每次重新计算
		created, fulfilled = nil, nil

		locked, st, err := uc.arbiter.LockCopy(txCtx, req.CopyID)
		if err != nil {
			return err
		}
		expired = locked.Expired

		if locked.Holdings.Title.IsDelisted() || locked.Copy(req.CopyID).IsDiscarded() {
			return catalog.ErrTitleDelisted
		}

		switch {
		case st.OnLoan():
			return loan.ErrCopyUnavailable
		case st.Status == circulation.StatusAvailable:
		case st.ReservedFor(req.PatronID):
			fulfilled = st.Reservation
		default:
			return loan.ErrCopyUnavailable
		}

		if err := member.RequireActive(txCtx, uc.directory, member.KindPatron, req.PatronID); err != nil {
			return err
		}
		if err := member.RequireActive(txCtx, uc.directory, member.KindOperator, req.OperatorID); err != nil {
			return err
		}

		if fulfilled != nil {
			if err := fulfilled.Fulfill(req.CopyID); err != nil {
				return err
			}
			if err := uc.reservations.Update(txCtx, fulfilled); err != nil {
				return err
			}
		}

		created, err = loan.NewLoan(req.CopyID, req.PatronID, req.OperatorID, checkout, req.DueDate)
		if err != nil {
			return err
		}
		return uc.loans.Create(txCtx, created)
	})
	if err != nil {
		return nil, err
	}

	metrics.AddExpired("lazy", expired)
	events := []circulation.Event{
		circulation.NewEvent(circulation.EventLoanCreated, map[string]interface{}{
			"loan_id":   created.ID,
			"copy_id":   created.CopyID,
			"patron_id": created.PatronID,
			"due_date":  created.DueDate.Format("2006-01-02"),
		}),
	}
	resp = &CreateLoanResponse{
		Loan:       NewLoanView(created),
		CopyStatus: circulation.StatusOnLoan.String(),
	}
	if fulfilled != nil {
		resp.FulfilledReservationID = fulfilled.ID
		events = append(events, circulation.NewEvent(circulation.EventReservationFulfilled, map[string]interface{}{
			"reservation_id": fulfilled.ID,
			"loan_id":        created.ID,
			"copy_id":        created.CopyID,
			"patron_id":      created.PatronID,
		}))
	}
	circulation.Notify(ctx, uc.publisher, events...)

	return resp, nil
}
