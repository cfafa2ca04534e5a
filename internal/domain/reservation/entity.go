package reservation

import (
	"time"

	"github.com/xiebiao/library/pkg/civil"
)

// Status 预约状态
// 状态流转：active → fulfilled / cancelled / expired，三个终态
type Status int

const (
	StatusActive    Status = 1 // 有效
	StatusFulfilled Status = 2 // 已转借阅
	StatusCancelled Status = 3 // 已取消
	StatusExpired   Status = 4 // 已过期
)

// String 实现Stringer接口
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFulfilled:
		return "fulfilled"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Reservation 预约实体（聚合根）
// TitleID总是有值；CopyID为nil表示书目级排队预约，读取时按创建顺序绑定到空闲副本
type Reservation struct {
	ID         uint
	PatronID   uint
	OperatorID *uint
	TitleID    uint
	CopyID     *uint
	ReservedOn time.Time
	ExpiresOn  time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewReservation 创建预约（工厂方法）
// copyID为0表示书目级排队预约
func NewReservation(patronID uint, operatorID *uint, titleID, copyID uint, reservedOn, expiresOn time.Time) *Reservation {
	now := time.Now()
	r := &Reservation{
		PatronID:   patronID,
		OperatorID: operatorID,
		TitleID:    titleID,
		ReservedOn: civil.Date(reservedOn),
		ExpiresOn:  civil.Date(expiresOn),
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if copyID != 0 {
		id := copyID
		r.CopyID = &id
	}
	return r
}

// IsActive 是否有效
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// IsBound 是否已绑定到具体副本
func (r *Reservation) IsBound() bool {
	return r.CopyID != nil
}

// BoundTo 是否绑定到指定副本
func (r *Reservation) BoundTo(copyID uint) bool {
	return r.CopyID != nil && *r.CopyID == copyID
}

// IsLapsed 截至asOf是否已超过有效期（有效期当天仍然有效）
func (r *Reservation) IsLapsed(asOf time.Time) bool {
	return r.ExpiresOn.Before(civil.Date(asOf))
}

// Holds 截至asOf是否仍然占用副本
// 过期但尚未被清理的预约不再占用
func (r *Reservation) Holds(asOf time.Time) bool {
	return r.IsActive() && !r.IsLapsed(asOf)
}

// Fulfill 转为借阅（领域行为）
// 书目级预约在转借阅时记录实际副本
func (r *Reservation) Fulfill(copyID uint) error {
	if !r.IsActive() {
		return ErrReservationNotActive
	}
	if r.CopyID == nil {
		id := copyID
		r.CopyID = &id
	}
	r.Status = StatusFulfilled
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel 取消预约（领域行为）
func (r *Reservation) Cancel() error {
	if !r.IsActive() {
		return ErrReservationNotCancellable
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// Expire 过期（领域行为）
func (r *Reservation) Expire() error {
	if !r.IsActive() {
		return ErrReservationNotActive
	}
	r.Status = StatusExpired
	r.UpdatedAt = time.Now()
	return nil
}
