package memory

import (
	"context"

	"github.com/xiebiao/library/internal/domain/returns"
)

type returnRepo struct {
	store *Store
}

func (r *returnRepo) Create(ctx context.Context, ret *returns.Return) error {
	return r.store.with(ctx, func(st *state) error {
		for _, existing := range st.returns {
			if existing.LoanID == ret.LoanID {
				return returns.ErrReturnAlreadyRegistered
			}
		}
		st.nextReturnID++
		ret.ID = st.nextReturnID
		st.returns[ret.ID] = *ret
		return nil
	})
}

func (r *returnRepo) FindByLoanID(ctx context.Context, loanID uint) (*returns.Return, error) {
	var out *returns.Return
	err := r.store.with(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.LoanID == loanID {
				ret := ret
				out = &ret
				return nil
			}
		}
		return returns.ErrReturnNotFound
	})
	return out, err
}
