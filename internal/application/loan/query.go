package loan

import (
	"context"

	"github.com/xiebiao/library/internal/domain/loan"
)

// 分页参数默认值
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// QueryUseCase 借阅查询与删除
type QueryUseCase struct {
	loans loan.Repository
}

// NewQueryUseCase 创建借阅查询用例
func NewQueryUseCase(loans loan.Repository) *QueryUseCase {
	return &QueryUseCase{loans: loans}
}

// Get 查询单条借阅
func (uc *QueryUseCase) Get(ctx context.Context, loanID uint) (*LoanView, error) {
	l, err := uc.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	v := NewLoanView(l)
	return &v, nil
}

// ListByPatronRequest 读者借阅列表请求
type ListByPatronRequest struct {
	PatronID uint
	Page     int
	PageSize int
}

// ListByPatronResponse 读者借阅列表响应
type ListByPatronResponse struct {
	List     []LoanView `json:"list"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// ListByPatron 分页查询读者的借阅
func (uc *QueryUseCase) ListByPatron(ctx context.Context, req ListByPatronRequest) (*ListByPatronResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	loans, total, err := uc.loans.ListByPatron(ctx, req.PatronID, page, pageSize)
	if err != nil {
		return nil, err
	}

	list := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		list = append(list, NewLoanView(l))
	}
	return &ListByPatronResponse{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Delete 删除借阅记录
// 只允许删除已归还/已取消的记录，借出中的记录删除会破坏副本状态
func (uc *QueryUseCase) Delete(ctx context.Context, loanID uint) error {
	l, err := uc.loans.FindByID(ctx, loanID)
	if err != nil {
		return err
	}
	if l.IsActive() {
		return loan.ErrLoanActive
	}
	return uc.loans.Delete(ctx, loanID)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
