package title

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

const tracerName = "application.title"

// TitleView 书目响应DTO
type TitleView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	PublicationYear int    `json:"publication_year"`
	State           string `json:"state"`
}

func newTitleView(t *catalog.Title) TitleView {
	return TitleView{
		ID:              t.ID,
		Name:            t.Name,
		PublicationYear: t.PublicationYear,
		State:           t.State.String(),
	}
}

// UseCase 书目登记与下架
type UseCase struct {
	tx           circulation.Transactor
	arbiter      *circulation.Arbiter
	titles       catalog.TitleRepository
	copies       catalog.CopyRepository
	reservations reservation.Repository
	publisher    circulation.Publisher
}

// NewUseCase 创建书目用例
func NewUseCase(
	tx circulation.Transactor,
	arbiter *circulation.Arbiter,
	titles catalog.TitleRepository,
	copies catalog.CopyRepository,
	reservations reservation.Repository,
	publisher circulation.Publisher,
) *UseCase {
	return &UseCase{
		tx:           tx,
		arbiter:      arbiter,
		titles:       titles,
		copies:       copies,
		reservations: reservations,
		publisher:    publisher,
	}
}

// RegisterRequest 书目登记请求DTO
type RegisterRequest struct {
	Name            string
	PublicationYear int
}

// Register 登记书目
func (uc *UseCase) Register(ctx context.Context, req RegisterRequest) (*TitleView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalog.ErrInvalidTitle
	}
	t := catalog.NewTitle(name, req.PublicationYear)
	if err := uc.titles.Create(ctx, t); err != nil {
		return nil, err
	}
	v := newTitleView(t)
	return &v, nil
}

// Get 查询书目
func (uc *UseCase) Get(ctx context.Context, titleID uint) (*TitleView, error) {
	t, err := uc.titles.FindByID(ctx, titleID)
	if err != nil {
		return nil, err
	}
	v := newTitleView(t)
	return &v, nil
}

// DelistResponse 下架结果
type DelistResponse struct {
	Title                 TitleView `json:"title"`
	DiscardedCopies       int64     `json:"discarded_copies"`
	CancelledReservations int       `json:"cancelled_reservations"`
}

// Delist 下架书目
// 同一事务内：书目置为delisted，全部副本强制报废，有效预约全部取消
// 借出中的借阅不受影响，归还后副本呈现为discarded；重复下架是幂等的
func (uc *UseCase) Delist(ctx context.Context, titleID uint) (resp *DelistResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "DelistTitle")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("delist_title", start, err)
		tracing.EndSpan(span, err)
	}()

	var cancelled []*reservation.Reservation
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		cancelled = nil

		locked, err := uc.arbiter.LockTitle(txCtx, titleID)
		if err != nil {
			return err
		}
		t := locked.Holdings.Title
		t.Delist()
		if err := uc.titles.Update(txCtx, t); err != nil {
			return err
		}

		n, err := uc.copies.DiscardByTitle(txCtx, titleID)
		if err != nil {
			return err
		}

		for _, r := range locked.Holdings.Reservations {
			if err := r.Cancel(); err != nil {
				return err
			}
			if err := uc.reservations.Update(txCtx, r); err != nil {
				return err
			}
			cancelled = append(cancelled, r)
		}

		resp = &DelistResponse{
			Title:                 newTitleView(t),
			DiscardedCopies:       n,
			CancelledReservations: len(cancelled),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	events := make([]circulation.Event, 0, len(cancelled))
	for _, r := range cancelled {
		events = append(events, circulation.NewEvent(circulation.EventReservationCancelled, map[string]interface{}{
			"reservation_id": r.ID,
			"title_id":       r.TitleID,
			"patron_id":      r.PatronID,
			"reason":         "title_delisted",
		}))
	}
	circulation.Notify(ctx, uc.publisher, events...)

	return resp, nil
}
