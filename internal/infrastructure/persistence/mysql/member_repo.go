package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/member"
)

// memberRepository 读者/馆员目录(MySQL)
// 读者和馆员分表存储，ID空间互相独立
type memberRepository struct {
	conn
}

// NewMemberRepository 创建成员目录
func NewMemberRepository(db *gorm.DB) member.Registry {
	return &memberRepository{conn{db: db}}
}

// memberRow 两张表共用的查询结果
type memberRow struct {
	ID     uint
	Name   string
	Active bool
}

func tableOf(kind member.Kind) string {
	if kind == member.KindOperator {
		return OperatorModel{}.TableName()
	}
	return PatronModel{}.TableName()
}

// Find 查找成员
func (r *memberRepository) Find(ctx context.Context, kind member.Kind, id uint) (*member.Member, error) {
	var row memberRow
	err := r.getDB(ctx).Table(tableOf(kind)).Select("id", "name", "active").Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrMemberNotFound
		}
		return nil, dbError(err, "查询成员失败")
	}
	return &member.Member{ID: row.ID, Kind: kind, Name: row.Name, Active: row.Active}, nil
}

// Add 登记成员
func (r *memberRepository) Add(ctx context.Context, kind member.Kind, name string) (*member.Member, error) {
	var (
		id  uint
		err error
	)
	if kind == member.KindOperator {
		m := &OperatorModel{Name: name, Active: true}
		err = r.getDB(ctx).Create(m).Error
		id = m.ID
	} else {
		m := &PatronModel{Name: name, Active: true}
		err = r.getDB(ctx).Create(m).Error
		id = m.ID
	}
	if err != nil {
		return nil, dbError(err, "登记成员失败")
	}
	return &member.Member{ID: id, Kind: kind, Name: name, Active: true}, nil
}

// SetActive 启用/停用成员
func (r *memberRepository) SetActive(ctx context.Context, kind member.Kind, id uint, active bool) error {
	result := r.getDB(ctx).Table(tableOf(kind)).Where("id = ?", id).Updates(map[string]interface{}{
		"active":     active,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return dbError(result.Error, "更新成员状态失败")
	}
	if result.RowsAffected == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}
