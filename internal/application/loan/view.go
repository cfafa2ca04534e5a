package loan

import (
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/civil"
)

const tracerName = "application.loan"

// LoanView 借阅响应DTO
type LoanView struct {
	ID           uint   `json:"id"`
	CopyID       uint   `json:"copy_id"`
	PatronID     uint   `json:"patron_id"`
	OperatorID   uint   `json:"operator_id"`
	CheckoutDate string `json:"checkout_date"`
	DueDate      string `json:"due_date"`
	ReturnedOn   string `json:"returned_on,omitempty"`
	Status       string `json:"status"`
}

// NewLoanView 实体转DTO
func NewLoanView(l *loan.Loan) LoanView {
	v := LoanView{
		ID:           l.ID,
		CopyID:       l.CopyID,
		PatronID:     l.PatronID,
		OperatorID:   l.OperatorID,
		CheckoutDate: civil.Format(l.CheckoutDate),
		DueDate:      civil.Format(l.DueDate),
		Status:       l.Status.String(),
	}
	if l.ReturnedOn != nil {
		v.ReturnedOn = civil.Format(*l.ReturnedOn)
	}
	return v
}
