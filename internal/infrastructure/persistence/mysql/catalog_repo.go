package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/catalog"
)

// titleRepository 书目仓储实现(MySQL)
type titleRepository struct {
	conn
}

// NewTitleRepository 创建书目仓储
func NewTitleRepository(db *gorm.DB) catalog.TitleRepository {
	return &titleRepository{conn{db: db}}
}

// Create 创建书目
func (r *titleRepository) Create(ctx context.Context, t *catalog.Title) error {
	model := &TitleModel{
		Name:            t.Name,
		PublicationYear: t.PublicationYear,
		State:           int(t.State),
	}
	if err := r.getDB(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return dbError(err, "创建书目失败")
	}
	t.ID = model.ID
	t.CreatedAt = model.CreatedAt
	t.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找书目
func (r *titleRepository) FindByID(ctx context.Context, id uint) (*catalog.Title, error) {
	var model TitleModel
	if err := r.getDB(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrTitleNotFound
		}
		return nil, dbError(err, "查询书目失败")
	}
	return toTitleEntity(&model), nil
}

// LockByID 悲观锁查询书目
// 要点:必须在事务内调用(getDB从context取事务DB)，锁持有到事务结束
func (r *titleRepository) LockByID(ctx context.Context, id uint) (*catalog.Title, error) {
	var model TitleModel
	err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrTitleNotFound
		}
		return nil, dbError(err, "锁定书目失败")
	}
	return toTitleEntity(&model), nil
}

// Update 更新书目
func (r *titleRepository) Update(ctx context.Context, t *catalog.Title) error {
	result := r.getDB(ctx).Model(&TitleModel{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"name":             t.Name,
		"publication_year": t.PublicationYear,
		"state":            int(t.State),
		"updated_at":       t.UpdatedAt,
	})
	if result.Error != nil {
		return dbError(result.Error, "更新书目失败")
	}
	if result.RowsAffected == 0 {
		// 值未变化时MySQL也返回0行，再确认一次是否存在
		if _, err := r.FindByID(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func toTitleEntity(m *TitleModel) *catalog.Title {
	return &catalog.Title{
		ID:              m.ID,
		Name:            m.Name,
		PublicationYear: m.PublicationYear,
		State:           catalog.TitleState(m.State),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// copyRepository 副本仓储实现(MySQL)
type copyRepository struct {
	conn
}

// NewCopyRepository 创建副本仓储
func NewCopyRepository(db *gorm.DB) catalog.CopyRepository {
	return &copyRepository{conn{db: db}}
}

// Create 创建副本
// 外部编码唯一性由数据库UNIQUE索引保证
func (r *copyRepository) Create(ctx context.Context, c *catalog.Copy) error {
	model := &CopyModel{
		TitleID:      c.TitleID,
		ExternalCode: c.ExternalCode,
		Disposition:  int(c.Disposition),
	}
	if err := r.getDB(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		switch {
		case isDuplicateError(err):
			return catalog.ErrDuplicateCode
		case isForeignKeyError(err):
			return catalog.ErrTitleNotFound
		}
		return dbError(err, "创建副本失败")
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找副本（不含已删除）
func (r *copyRepository) FindByID(ctx context.Context, id uint) (*catalog.Copy, error) {
	var model CopyModel
	if err := r.getDB(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrCopyNotFound
		}
		return nil, dbError(err, "查询副本失败")
	}
	return toCopyEntity(&model), nil
}

// ListByTitle 查询书目下的全部副本
func (r *copyRepository) ListByTitle(ctx context.Context, titleID uint) ([]*catalog.Copy, error) {
	var models []CopyModel
	if err := r.getDB(ctx).Where("title_id = ?", titleID).Order("id").Find(&models).Error; err != nil {
		return nil, dbError(err, "查询副本列表失败")
	}
	return toCopyEntities(models), nil
}

// LockByTitle 按ID升序锁定书目下的全部副本
func (r *copyRepository) LockByTitle(ctx context.Context, titleID uint) ([]*catalog.Copy, error) {
	var models []CopyModel
	err := r.getDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("title_id = ?", titleID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, dbError(err, "锁定副本失败")
	}
	return toCopyEntities(models), nil
}

// Delete 删除副本(软删除)
func (r *copyRepository) Delete(ctx context.Context, id uint) error {
	result := r.getDB(ctx).Delete(&CopyModel{}, id)
	if result.Error != nil {
		return dbError(result.Error, "删除副本失败")
	}
	if result.RowsAffected == 0 {
		return catalog.ErrCopyNotFound
	}
	return nil
}

// DiscardByTitle 书目下所有副本标记为报废
func (r *copyRepository) DiscardByTitle(ctx context.Context, titleID uint) (int64, error) {
	result := r.getDB(ctx).Model(&CopyModel{}).
		Where("title_id = ? AND disposition <> ?", titleID, int(catalog.DispositionDiscarded)).
		Update("disposition", int(catalog.DispositionDiscarded))
	if result.Error != nil {
		return 0, dbError(result.Error, "报废副本失败")
	}
	return result.RowsAffected, nil
}

func toCopyEntity(m *CopyModel) *catalog.Copy {
	return &catalog.Copy{
		ID:           m.ID,
		TitleID:      m.TitleID,
		ExternalCode: m.ExternalCode,
		Disposition:  catalog.Disposition(m.Disposition),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toCopyEntities(models []CopyModel) []*catalog.Copy {
	out := make([]*catalog.Copy, len(models))
	for i := range models {
		out[i] = toCopyEntity(&models[i])
	}
	return out
}
