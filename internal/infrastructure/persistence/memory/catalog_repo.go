package memory

import (
	"context"
	"sort"

	"github.com/xiebiao/library/internal/domain/catalog"
)

type titleRepo struct {
	store *Store
}

func (r *titleRepo) Create(ctx context.Context, title *catalog.Title) error {
	return r.store.with(ctx, func(st *state) error {
		st.nextTitleID++
		title.ID = st.nextTitleID
		st.titles[title.ID] = *title
		return nil
	})
}

func (r *titleRepo) FindByID(ctx context.Context, id uint) (*catalog.Title, error) {
	var out *catalog.Title
	err := r.store.with(ctx, func(st *state) error {
		t, ok := st.titles[id]
		if !ok {
			return catalog.ErrTitleNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

// LockByID 事务已经持有全局锁，等同于FindByID
func (r *titleRepo) LockByID(ctx context.Context, id uint) (*catalog.Title, error) {
	return r.FindByID(ctx, id)
}

func (r *titleRepo) Update(ctx context.Context, title *catalog.Title) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.titles[title.ID]; !ok {
			return catalog.ErrTitleNotFound
		}
		st.titles[title.ID] = *title
		return nil
	})
}

type copyRepo struct {
	store *Store
}

func (r *copyRepo) Create(ctx context.Context, c *catalog.Copy) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.titles[c.TitleID]; !ok {
			return catalog.ErrTitleNotFound
		}
		for _, existing := range st.copies {
			if existing.ExternalCode == c.ExternalCode {
				return catalog.ErrDuplicateCode
			}
		}
		st.nextCopyID++
		c.ID = st.nextCopyID
		st.copies[c.ID] = *c
		return nil
	})
}

func (r *copyRepo) FindByID(ctx context.Context, id uint) (*catalog.Copy, error) {
	var out *catalog.Copy
	err := r.store.with(ctx, func(st *state) error {
		c, ok := st.copies[id]
		if !ok {
			return catalog.ErrCopyNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *copyRepo) ListByTitle(ctx context.Context, titleID uint) ([]*catalog.Copy, error) {
	var out []*catalog.Copy
	err := r.store.with(ctx, func(st *state) error {
		for _, c := range st.copies {
			if c.TitleID == titleID {
				c := c
				out = append(out, &c)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *copyRepo) LockByTitle(ctx context.Context, titleID uint) ([]*catalog.Copy, error) {
	return r.ListByTitle(ctx, titleID)
}

func (r *copyRepo) Delete(ctx context.Context, id uint) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.copies[id]; !ok {
			return catalog.ErrCopyNotFound
		}
		delete(st.copies, id)
		return nil
	})
}

func (r *copyRepo) DiscardByTitle(ctx context.Context, titleID uint) (int64, error) {
	var n int64
	err := r.store.with(ctx, func(st *state) error {
		for id, c := range st.copies {
			if c.TitleID == titleID && !c.IsDiscarded() {
				c.Disposition = catalog.DispositionDiscarded
				st.copies[id] = c
				n++
			}
		}
		return nil
	})
	return n, err
}
