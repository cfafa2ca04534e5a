package memory

import (
	"context"

	"github.com/xiebiao/library/internal/domain/member"
)

type directory struct {
	store *Store
}

func (d *directory) Find(ctx context.Context, kind member.Kind, id uint) (*member.Member, error) {
	var out *member.Member
	err := d.store.with(ctx, func(st *state) error {
		m, ok := st.members[kind][id]
		if !ok {
			return member.ErrMemberNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (d *directory) Add(ctx context.Context, kind member.Kind, name string) (*member.Member, error) {
	id := d.store.AddMember(kind, name, true)
	return &member.Member{ID: id, Kind: kind, Name: name, Active: true}, nil
}

func (d *directory) SetActive(ctx context.Context, kind member.Kind, id uint, active bool) error {
	return d.store.with(ctx, func(st *state) error {
		m, ok := st.members[kind][id]
		if !ok {
			return member.ErrMemberNotFound
		}
		m.Active = active
		st.members[kind][id] = m
		return nil
	})
}

// AddMember 登记读者或馆员，返回分配的ID
func (s *Store) AddMember(kind member.Kind, name string, active bool) uint {
	var id uint
	_ = s.with(context.Background(), func(st *state) error {
		st.nextMemberID[kind]++
		id = st.nextMemberID[kind]
		if st.members[kind] == nil {
			st.members[kind] = map[uint]member.Member{}
		}
		st.members[kind][id] = member.Member{ID: id, Kind: kind, Name: name, Active: active}
		return nil
	})
	return id
}

// SetMemberActive 启用/停用成员
func (s *Store) SetMemberActive(kind member.Kind, id uint, active bool) {
	_ = s.with(context.Background(), func(st *state) error {
		if m, ok := st.members[kind][id]; ok {
			m.Active = active
			st.members[kind][id] = m
		}
		return nil
	})
}
