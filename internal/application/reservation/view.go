package reservation

import (
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/civil"
)

const tracerName = "application.reservation"

// ReservationView 预约响应DTO
type ReservationView struct {
	ID         uint   `json:"id"`
	PatronID   uint   `json:"patron_id"`
	OperatorID *uint  `json:"operator_id,omitempty"`
	TitleID    uint   `json:"title_id"`
	CopyID     *uint  `json:"copy_id,omitempty"`
	ReservedOn string `json:"reserved_on"`
	ExpiresOn  string `json:"expires_on"`
	Status     string `json:"status"`
}

// NewReservationView 实体转DTO
func NewReservationView(r *reservation.Reservation) ReservationView {
	return ReservationView{
		ID:         r.ID,
		PatronID:   r.PatronID,
		OperatorID: r.OperatorID,
		TitleID:    r.TitleID,
		CopyID:     r.CopyID,
		ReservedOn: civil.Format(r.ReservedOn),
		ExpiresOn:  civil.Format(r.ExpiresOn),
		Status:     r.Status.String(),
	}
}
