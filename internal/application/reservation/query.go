package reservation

import (
	"context"

	"github.com/xiebiao/library/internal/domain/reservation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// QueryUseCase 预约查询与删除
type QueryUseCase struct {
	reservations reservation.Repository
}

// NewQueryUseCase 创建预约查询用例
func NewQueryUseCase(reservations reservation.Repository) *QueryUseCase {
	return &QueryUseCase{reservations: reservations}
}

// Get 查询单条预约
func (uc *QueryUseCase) Get(ctx context.Context, id uint) (*ReservationView, error) {
	r, err := uc.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := NewReservationView(r)
	return &v, nil
}

// ListByPatronRequest 读者预约列表请求
type ListByPatronRequest struct {
	PatronID uint
	Page     int
	PageSize int
}

// ListByPatronResponse 读者预约列表响应
type ListByPatronResponse struct {
	List     []ReservationView `json:"list"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ListByPatron 分页查询读者的预约
func (uc *QueryUseCase) ListByPatron(ctx context.Context, req ListByPatronRequest) (*ListByPatronResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := uc.reservations.ListByPatron(ctx, req.PatronID, page, pageSize)
	if err != nil {
		return nil, err
	}
	list := make([]ReservationView, 0, len(items))
	for _, r := range items {
		list = append(list, NewReservationView(r))
	}
	return &ListByPatronResponse{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Delete 删除预约记录（有效预约需先取消）
func (uc *QueryUseCase) Delete(ctx context.Context, id uint) error {
	r, err := uc.reservations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if r.IsActive() {
		return reservation.ErrReservationActive
	}
	return uc.reservations.Delete(ctx, id)
}
