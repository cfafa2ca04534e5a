package copy

import (
	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/pkg/civil"
)

const tracerName = "application.copy"

// CopyView 副本响应DTO（含推导状态）
type CopyView struct {
	ID           uint   `json:"id"`
	TitleID      uint   `json:"title_id"`
	ExternalCode string `json:"external_code"`
	Disposition  string `json:"disposition"`
	Status       string `json:"status"`
}

// StatusView 副本流通状态DTO
type StatusView struct {
	CopyID        uint   `json:"copy_id"`
	TitleID       uint   `json:"title_id"`
	Status        string `json:"status"`
	AsOf          string `json:"as_of"`
	LoanID        uint   `json:"loan_id,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	ReservationID uint   `json:"reservation_id,omitempty"`
	// ReservedFor 保留给哪位读者；仍在借出中时为排在借阅之后的读者
	ReservedFor uint `json:"reserved_for,omitempty"`
}

func newCopyView(c *catalog.Copy, st circulation.CopyState) CopyView {
	return CopyView{
		ID:           c.ID,
		TitleID:      c.TitleID,
		ExternalCode: c.ExternalCode,
		Disposition:  c.Disposition.String(),
		Status:       st.Status.String(),
	}
}

func newStatusView(c *catalog.Copy, st circulation.CopyState, asOf string) StatusView {
	v := StatusView{
		CopyID:  c.ID,
		TitleID: c.TitleID,
		Status:  st.Status.String(),
		AsOf:    asOf,
	}
	if st.Loan != nil {
		v.LoanID = st.Loan.ID
		v.DueDate = civil.Format(st.Loan.DueDate)
	}
	if st.Reservation != nil {
		v.ReservationID = st.Reservation.ID
		v.ReservedFor = st.Reservation.PatronID
	}
	return v
}
