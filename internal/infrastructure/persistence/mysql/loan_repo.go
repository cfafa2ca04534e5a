package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/civil"
)

// loanRepository 借阅仓储实现(MySQL)
type loanRepository struct {
	conn
}

// NewLoanRepository 创建借阅仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{conn{db: db}}
}

// Create 创建借阅
// 要点：uk_loans_active_copy唯一索引是"一个副本一条借出中借阅"的最后防线
func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	model := fromLoanEntity(l)
	if err := r.getDB(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		switch {
		case isDuplicateError(err):
			return loan.ErrCopyUnavailable
		case isForeignKeyError(err):
			return errDanglingReference
		}
		return dbError(err, "创建借阅失败")
	}
	l.ID = model.ID
	l.CreatedAt = model.CreatedAt
	l.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找借阅
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	if err := r.getDB(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, dbError(err, "查询借阅失败")
	}
	return toLoanEntity(&model), nil
}

// LockByID 悲观锁查询借阅
func (r *loanRepository) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var model LoanModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, dbError(err, "锁定借阅失败")
	}
	return toLoanEntity(&model), nil
}

// Update 更新状态与归还日期
func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	result := r.getDB(ctx).Model(&LoanModel{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"status":      int(l.Status),
		"returned_on": l.ReturnedOn,
		"updated_at":  l.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return loan.ErrCopyUnavailable
		}
		return dbError(result.Error, "更新借阅失败")
	}
	if result.RowsAffected == 0 {
		return loan.ErrLoanNotFound
	}
	return nil
}

// Delete 删除借阅（归还记录由外键级联删除）
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	result := r.getDB(ctx).Delete(&LoanModel{}, id)
	if result.Error != nil {
		return dbError(result.Error, "删除借阅失败")
	}
	if result.RowsAffected == 0 {
		return loan.ErrLoanNotFound
	}
	return nil
}

// FindActiveByCopies 查询一组副本上借出中的借阅
func (r *loanRepository) FindActiveByCopies(ctx context.Context, copyIDs []uint) ([]*loan.Loan, error) {
	if len(copyIDs) == 0 {
		return nil, nil
	}
	var models []LoanModel
	err := r.getDB(ctx).
		Where("copy_id IN ? AND status = ?", copyIDs, int(loan.StatusActive)).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, dbError(err, "查询借阅失败")
	}
	out := make([]*loan.Loan, len(models))
	for i := range models {
		out[i] = toLoanEntity(&models[i])
	}
	return out, nil
}

// ListByPatron 分页查询读者的借阅
func (r *loanRepository) ListByPatron(ctx context.Context, patronID uint, page, pageSize int) ([]*loan.Loan, int64, error) {
	var (
		models []LoanModel
		total  int64
	)
	query := r.getDB(ctx).Model(&LoanModel{}).Where("patron_id = ?", patronID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "查询借阅总数失败")
	}
	err := query.
		Order("checkout_date DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, dbError(err, "查询借阅列表失败")
	}
	out := make([]*loan.Loan, len(models))
	for i := range models {
		out[i] = toLoanEntity(&models[i])
	}
	return out, total, nil
}

func fromLoanEntity(l *loan.Loan) *LoanModel {
	return &LoanModel{
		ID:           l.ID,
		CopyID:       l.CopyID,
		PatronID:     l.PatronID,
		OperatorID:   l.OperatorID,
		CheckoutDate: l.CheckoutDate,
		DueDate:      l.DueDate,
		ReturnedOn:   l.ReturnedOn,
		Status:       int(l.Status),
	}
}

// toLoanEntity 日期列统一截断为UTC零点
func toLoanEntity(m *LoanModel) *loan.Loan {
	l := &loan.Loan{
		ID:           m.ID,
		CopyID:       m.CopyID,
		PatronID:     m.PatronID,
		OperatorID:   m.OperatorID,
		CheckoutDate: civil.Date(m.CheckoutDate),
		DueDate:      civil.Date(m.DueDate),
		Status:       loan.Status(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.ReturnedOn != nil {
		d := civil.Date(*m.ReturnedOn)
		l.ReturnedOn = &d
	}
	return l
}
