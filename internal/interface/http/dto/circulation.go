// Package dto HTTP请求DTO
// 日期统一为YYYY-MM-DD字符串，空串表示取服务端当天
package dto

import (
	"time"

	"github.com/xiebiao/library/pkg/civil"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// RegisterTitleRequest 书目登记
type RegisterTitleRequest struct {
	Name            string `json:"name" binding:"required,max=200" example:"百年孤独"`
	PublicationYear int    `json:"publication_year" binding:"omitempty,min=0,max=9999" example:"1967"`
}

// RegisterCopyRequest 副本登记
type RegisterCopyRequest struct {
	TitleID      uint   `json:"title_id" binding:"required" example:"1"`
	ExternalCode string `json:"external_code" binding:"required,max=64" example:"BC-000123"`
	Disposition  string `json:"disposition" binding:"omitempty,oneof=circulating discarded" example:"circulating"`
}

// CreateLoanRequest 借出
type CreateLoanRequest struct {
	CopyID       uint   `json:"copy_id" binding:"required" example:"1"`
	PatronID     uint   `json:"patron_id" binding:"required" example:"1"`
	CheckoutDate string `json:"checkout_date" example:"2024-01-01"`
	DueDate      string `json:"due_date" binding:"required" example:"2024-01-15"`
}

// RegisterReturnRequest 归还
type RegisterReturnRequest struct {
	LoanID     uint   `json:"loan_id" binding:"required" example:"1"`
	ReturnDate string `json:"return_date" example:"2024-01-10"`
}

// CreateReservationRequest 预约
// copy_id与title_id二选一；读者本人预约时patron_id可省略
type CreateReservationRequest struct {
	CopyID     uint   `json:"copy_id" example:"1"`
	TitleID    uint   `json:"title_id" example:"0"`
	PatronID   uint   `json:"patron_id" example:"1"`
	ReservedOn string `json:"reserved_on" example:"2024-01-01"`
	ExpiresOn  string `json:"expires_on" example:""`
}

// ExpireReservationsRequest 手动触发过期清理
type ExpireReservationsRequest struct {
	AsOf string `json:"as_of" example:"2024-01-10"`
}

// ParseDate 解析可选日期，空串返回零值
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := civil.Parse(s)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidParams.WithDetail("%s格式应为YYYY-MM-DD", field)
	}
	return t, nil
}

// ParseOptionalDate 解析可选日期，空串返回nil
func ParseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
