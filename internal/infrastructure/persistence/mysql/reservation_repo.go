package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/civil"
)

// reservationRepository 预约仓储实现(MySQL)
type reservationRepository struct {
	conn
}

// NewReservationRepository 创建预约仓储
func NewReservationRepository(db *gorm.DB) reservation.Repository {
	return &reservationRepository{conn{db: db}}
}

// Create 创建预约
// uk_reservations_active_copy保证同一副本最多一条有效预约
func (r *reservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	model := fromReservationEntity(res)
	if err := r.getDB(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		switch {
		case isDuplicateError(err):
			return reservation.ErrReservationAlreadyActive
		case isForeignKeyError(err):
			return errDanglingReference
		}
		return dbError(err, "创建预约失败")
	}
	res.ID = model.ID
	res.CreatedAt = model.CreatedAt
	res.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找预约
func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*reservation.Reservation, error) {
	var model ReservationModel
	if err := r.getDB(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, dbError(err, "查询预约失败")
	}
	return toReservationEntity(&model), nil
}

// Update 更新状态（兑现时同时写入副本ID）
func (r *reservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	result := r.getDB(ctx).Model(&ReservationModel{}).Where("id = ?", res.ID).Updates(map[string]interface{}{
		"status":     int(res.Status),
		"copy_id":    res.CopyID,
		"updated_at": res.UpdatedAt,
	})
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return reservation.ErrReservationAlreadyActive
		}
		return dbError(result.Error, "更新预约失败")
	}
	if result.RowsAffected == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

// Delete 删除预约
func (r *reservationRepository) Delete(ctx context.Context, id uint) error {
	result := r.getDB(ctx).Delete(&ReservationModel{}, id)
	if result.Error != nil {
		return dbError(result.Error, "删除预约失败")
	}
	if result.RowsAffected == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

// FindActiveByTitle 书目下的有效预约，按(预约日期, ID)排序
func (r *reservationRepository) FindActiveByTitle(ctx context.Context, titleID uint) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	err := r.getDB(ctx).
		Where("title_id = ? AND status = ?", titleID, int(reservation.StatusActive)).
		Order("reserved_on").
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, dbError(err, "查询预约失败")
	}
	return toReservationEntities(models), nil
}

// ExpireLapsed 有效期早于asOf的有效预约置为过期
// titleID为0时处理全部书目；条件里带status=1，重复执行不会再次命中
func (r *reservationRepository) ExpireLapsed(ctx context.Context, titleID uint, asOf time.Time) (int64, error) {
	query := r.getDB(ctx).Model(&ReservationModel{}).
		Where("status = ? AND expires_on < ?", int(reservation.StatusActive), civil.Date(asOf))
	if titleID != 0 {
		query = query.Where("title_id = ?", titleID)
	}
	result := query.Updates(map[string]interface{}{
		"status":     int(reservation.StatusExpired),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return 0, dbError(result.Error, "清理过期预约失败")
	}
	return result.RowsAffected, nil
}

// ListByPatron 分页查询读者的预约
func (r *reservationRepository) ListByPatron(ctx context.Context, patronID uint, page, pageSize int) ([]*reservation.Reservation, int64, error) {
	var (
		models []ReservationModel
		total  int64
	)
	query := r.getDB(ctx).Model(&ReservationModel{}).Where("patron_id = ?", patronID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, "查询预约总数失败")
	}
	err := query.
		Order("reserved_on DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, dbError(err, "查询预约列表失败")
	}
	return toReservationEntities(models), total, nil
}

func fromReservationEntity(res *reservation.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:         res.ID,
		PatronID:   res.PatronID,
		OperatorID: res.OperatorID,
		TitleID:    res.TitleID,
		CopyID:     res.CopyID,
		ReservedOn: res.ReservedOn,
		ExpiresOn:  res.ExpiresOn,
		Status:     int(res.Status),
	}
}

func toReservationEntity(m *ReservationModel) *reservation.Reservation {
	return &reservation.Reservation{
		ID:         m.ID,
		PatronID:   m.PatronID,
		OperatorID: m.OperatorID,
		TitleID:    m.TitleID,
		CopyID:     m.CopyID,
		ReservedOn: civil.Date(m.ReservedOn),
		ExpiresOn:  civil.Date(m.ExpiresOn),
		Status:     reservation.Status(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toReservationEntities(models []ReservationModel) []*reservation.Reservation {
	out := make([]*reservation.Reservation, len(models))
	for i := range models {
		out[i] = toReservationEntity(&models[i])
	}
	return out
}
