package returns

import (
	"time"

	"github.com/xiebiao/library/pkg/civil"
)

// Return 归还记录
// 每笔借阅至多一条归还记录（loan_id唯一）
type Return struct {
	ID         uint
	LoanID     uint
	OperatorID uint
	ReturnedOn time.Time
	CreatedAt  time.Time
}

// NewReturn 创建归还记录
func NewReturn(loanID, operatorID uint, returnedOn time.Time) *Return {
	return &Return{
		LoanID:     loanID,
		OperatorID: operatorID,
		ReturnedOn: civil.Date(returnedOn),
		CreatedAt:  time.Now(),
	}
}
