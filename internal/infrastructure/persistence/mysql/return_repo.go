package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/returns"
	"github.com/xiebiao/library/pkg/civil"
)

// returnRepository 归还记录仓储实现(MySQL)
type returnRepository struct {
	conn
}

// NewReturnRepository 创建归还记录仓储
func NewReturnRepository(db *gorm.DB) returns.Repository {
	return &returnRepository{conn{db: db}}
}

// Create 写入归还记录，loan_id唯一
func (r *returnRepository) Create(ctx context.Context, ret *returns.Return) error {
	model := &ReturnModel{
		LoanID:     ret.LoanID,
		OperatorID: ret.OperatorID,
		ReturnedOn: ret.ReturnedOn,
	}
	if err := r.getDB(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		switch {
		case isDuplicateError(err):
			return returns.ErrReturnAlreadyRegistered
		case isForeignKeyError(err):
			return errDanglingReference
		}
		return dbError(err, "创建归还记录失败")
	}
	ret.ID = model.ID
	ret.CreatedAt = model.CreatedAt
	return nil
}

// FindByLoanID 查询借阅的归还记录
func (r *returnRepository) FindByLoanID(ctx context.Context, loanID uint) (*returns.Return, error) {
	var model ReturnModel
	if err := r.getDB(ctx).Where("loan_id = ?", loanID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, returns.ErrReturnNotFound
		}
		return nil, dbError(err, "查询归还记录失败")
	}
	return &returns.Return{
		ID:         model.ID,
		LoanID:     model.LoanID,
		OperatorID: model.OperatorID,
		ReturnedOn: civil.Date(model.ReturnedOn),
		CreatedAt:  model.CreatedAt,
	}, nil
}
