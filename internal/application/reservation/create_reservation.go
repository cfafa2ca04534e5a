package reservation

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/civil"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CreateReservationUseCase 预约用例
type CreateReservationUseCase struct {
	tx           circulation.Transactor
	arbiter      *circulation.Arbiter
	reservations reservation.Repository
	directory    member.Directory
	publisher    circulation.Publisher
	policy       reservation.ValidityPolicy
	clock        circulation.Clock
}

// NewCreateReservationUseCase 创建预约用例
func NewCreateReservationUseCase(
	tx circulation.Transactor,
	arbiter *circulation.Arbiter,
	reservations reservation.Repository,
	directory member.Directory,
	publisher circulation.Publisher,
	policy reservation.ValidityPolicy,
	clock circulation.Clock,
) *CreateReservationUseCase {
	return &CreateReservationUseCase{
		tx:           tx,
		arbiter:      arbiter,
		reservations: reservations,
		directory:    directory,
		publisher:    publisher,
		policy:       policy,
		clock:        clock,
	}
}

// CreateReservationRequest 预约请求DTO
// CopyID与TitleID二选一，CopyID优先
type CreateReservationRequest struct {
	CopyID     uint
	TitleID    uint
	PatronID   uint
	OperatorID *uint      // 馆员代办时填写
	ReservedOn time.Time  // 零值表示今天
	ExpiresOn  *time.Time // 期望的有效期，作为下限
}

// CreateReservationResponse 预约响应DTO
type CreateReservationResponse struct {
	Reservation ReservationView `json:"reservation"`
	// CopyStatus 绑定副本的当前状态；书目级排队时为空
	CopyStatus string `json:"copy_status,omitempty"`
	// BlockingDueDate 排在借阅之后时，该借阅的应还日期
	BlockingDueDate string `json:"blocking_due_date,omitempty"`
	// Queued 是否为尚未绑定副本的书目级排队预约
	Queued bool `json:"queued"`
}

// target 预约落点
type target struct {
	titleID     uint
	copyID      uint // 0表示书目级排队
	blockingDue *time.Time
}

// Execute 执行预约
// 检查顺序：读者 → 馆员（如有）→ 锁定后解析目标
// 副本目标：副本必须可借或借出中，且没有其他有效预约
// 书目目标：优先ID最小的可借副本；其次ID最小的、没有排队预约的借出中副本；
// 都没有时，只要书目还有流通中的副本就进入书目级排队
func (uc *CreateReservationUseCase) Execute(ctx context.Context, req CreateReservationRequest) (resp *CreateReservationResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateReservation")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("create_reservation", start, err)
		tracing.EndSpan(span, err)
	}()

	if req.PatronID == 0 {
		return nil, apperrors.ErrInvalidParams.WithDetail("patron_id必填")
	}
	if req.CopyID == 0 && req.TitleID == 0 {
		return nil, reservation.ErrTargetRequired
	}
	reservedOn := circulation.DateOr(req.ReservedOn, uc.clock)
	if req.ExpiresOn != nil && civil.Date(*req.ExpiresOn).Before(reservedOn) {
		return nil, apperrors.ErrInvalidParams.WithDetail("有效期不能早于预约日期")
	}

	var (
		created *reservation.Reservation
		status  string
		due     *time.Time
		expired int64
	)
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		created, status, due = nil, "", nil

		if err := member.RequireActive(txCtx, uc.directory, member.KindPatron, req.PatronID); err != nil {
			return err
		}
		if req.OperatorID != nil {
			if err := member.RequireActive(txCtx, uc.directory, member.KindOperator, *req.OperatorID); err != nil {
				return err
			}
		}

		var (
			t      target
			locked *circulation.Locked
			err    error
		)
		if req.CopyID != 0 {
			locked, t, err = uc.resolveCopy(txCtx, req.CopyID)
		} else {
			locked, t, err = uc.resolveTitle(txCtx, req.TitleID)
		}
		if err != nil {
			return err
		}
		expired = locked.Expired

		expiresOn := uc.policy.ExpiresOn(reservedOn, req.ExpiresOn, t.blockingDue)
		created = reservation.NewReservation(req.PatronID, req.OperatorID, t.titleID, t.copyID, reservedOn, expiresOn)
		if err := uc.reservations.Create(txCtx, created); err != nil {
			return err
		}
		due = t.blockingDue

		if t.copyID != 0 {
			_, st, err := uc.arbiter.LockCopy(txCtx, t.copyID)
			if err != nil {
				return err
			}
			status = st.Status.String()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AddExpired("lazy", expired)
	circulation.Notify(ctx, uc.publisher, circulation.NewEvent(circulation.EventReservationCreated, map[string]interface{}{
		"reservation_id": created.ID,
		"title_id":       created.TitleID,
		"copy_id":        created.CopyID,
		"patron_id":      created.PatronID,
		"expires_on":     civil.Format(created.ExpiresOn),
	}))

	resp = &CreateReservationResponse{
		Reservation: NewReservationView(created),
		CopyStatus:  status,
		Queued:      !created.IsBound(),
	}
	if due != nil {
		resp.BlockingDueDate = civil.Format(*due)
	}
	return resp, nil
}

func (uc *CreateReservationUseCase) resolveCopy(ctx context.Context, copyID uint) (*circulation.Locked, target, error) {
	locked, st, err := uc.arbiter.LockCopy(ctx, copyID)
	if err != nil {
		return nil, target{}, err
	}
	c := locked.Copy(copyID)
	if locked.Holdings.Title.IsDelisted() || c.IsDiscarded() {
		return nil, target{}, catalog.ErrTitleDelisted
	}
	// 每个副本只有一个排队位置
	if st.HasReservation() {
		return nil, target{}, reservation.ErrReservationAlreadyActive
	}

	t := target{titleID: c.TitleID, copyID: copyID}
	switch {
	case st.OnLoan():
		due := st.Loan.DueDate
		t.blockingDue = &due
	case st.Status == circulation.StatusAvailable:
	default:
		return nil, target{}, reservation.ErrCopyNotReservable
	}
	return locked, t, nil
}

func (uc *CreateReservationUseCase) resolveTitle(ctx context.Context, titleID uint) (*circulation.Locked, target, error) {
	locked, err := uc.arbiter.LockTitle(ctx, titleID)
	if err != nil {
		return nil, target{}, err
	}
	if locked.Holdings.Title.IsDelisted() {
		return nil, target{}, catalog.ErrTitleDelisted
	}

	t := target{titleID: titleID}
	snap := locked.Snapshot

	if st, ok := snap.First(func(s circulation.CopyState) bool {
		return s.Status == circulation.StatusAvailable
	}); ok {
		t.copyID = st.CopyID
		return locked, t, nil
	}

	if st, ok := snap.First(func(s circulation.CopyState) bool {
		return s.OnLoan() && !s.HasReservation()
	}); ok {
		due := st.Loan.DueDate
		t.copyID = st.CopyID
		t.blockingDue = &due
		return locked, t, nil
	}

	if !locked.Holdings.HasCirculating() {
		return nil, target{}, reservation.ErrNoCopyForTitle
	}
	t.blockingDue = locked.Holdings.EarliestDue()
	return locked, t, nil
}
