package memory

import (
	"context"
	"sort"

	"github.com/xiebiao/library/internal/domain/loan"
)

type loanRepo struct {
	store *Store
}

// Create 与MySQL的active_copy_id唯一索引保持一致：同一副本只能有一条借出中的记录
func (r *loanRepo) Create(ctx context.Context, l *loan.Loan) error {
	return r.store.with(ctx, func(st *state) error {
		if l.IsActive() {
			for _, existing := range st.loans {
				if existing.IsActive() && existing.CopyID == l.CopyID {
					return loan.ErrCopyUnavailable
				}
			}
		}
		st.nextLoanID++
		l.ID = st.nextLoanID
		st.loans[l.ID] = *l
		return nil
	})
}

func (r *loanRepo) FindByID(ctx context.Context, id uint) (*loan.Loan, error) {
	var out *loan.Loan
	err := r.store.with(ctx, func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return loan.ErrLoanNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *loanRepo) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	return r.FindByID(ctx, id)
}

func (r *loanRepo) Update(ctx context.Context, l *loan.Loan) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.loans[l.ID]; !ok {
			return loan.ErrLoanNotFound
		}
		st.loans[l.ID] = *l
		return nil
	})
}

func (r *loanRepo) Delete(ctx context.Context, id uint) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.loans[id]; !ok {
			return loan.ErrLoanNotFound
		}
		delete(st.loans, id)
		// 与MySQL外键ON DELETE CASCADE一致
		for rid, ret := range st.returns {
			if ret.LoanID == id {
				delete(st.returns, rid)
			}
		}
		return nil
	})
}

func (r *loanRepo) FindActiveByCopies(ctx context.Context, copyIDs []uint) ([]*loan.Loan, error) {
	want := make(map[uint]struct{}, len(copyIDs))
	for _, id := range copyIDs {
		want[id] = struct{}{}
	}
	var out []*loan.Loan
	err := r.store.with(ctx, func(st *state) error {
		for _, l := range st.loans {
			if _, ok := want[l.CopyID]; ok && l.IsActive() {
				l := l
				out = append(out, &l)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *loanRepo) ListByPatron(ctx context.Context, patronID uint, page, pageSize int) ([]*loan.Loan, int64, error) {
	var all []*loan.Loan
	err := r.store.with(ctx, func(st *state) error {
		for _, l := range st.loans {
			if l.PatronID == patronID {
				l := l
				all = append(all, &l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CheckoutDate.Equal(all[j].CheckoutDate) {
			return all[i].CheckoutDate.After(all[j].CheckoutDate)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page, pageSize), int64(len(all)), nil
}
