package member

import (
	"context"
	"errors"
)

// Member 目录中的一条记录
type Member struct {
	ID     uint
	Kind   Kind
	Name   string
	Active bool
}

// Directory 读者/馆员目录接口
type Directory interface {
	// Find 查找成员，不存在返回ErrMemberNotFound
	Find(ctx context.Context, kind Kind, id uint) (*Member, error)
}

// RequireActive 校验成员存在且启用，按类型返回对应的领域错误
func RequireActive(ctx context.Context, dir Directory, kind Kind, id uint) error {
	m, err := dir.Find(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return notFound(kind)
		}
		return err
	}
	if !m.Active {
		return inactive(kind)
	}
	return nil
}

func notFound(kind Kind) error {
	if kind == KindOperator {
		return ErrOperatorNotFound
	}
	return ErrPatronNotFound
}

func inactive(kind Kind) error {
	if kind == KindOperator {
		return ErrOperatorInactive
	}
	return ErrPatronInactive
}

// Registry 成员登记（运维命令使用）
type Registry interface {
	Directory

	// Add 登记成员，新成员默认启用
	Add(ctx context.Context, kind Kind, name string) (*Member, error)

	// SetActive 启用/停用成员
	SetActive(ctx context.Context, kind Kind, id uint, active bool) error
}
