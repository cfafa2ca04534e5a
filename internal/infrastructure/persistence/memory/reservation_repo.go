package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/library/internal/domain/reservation"
)

type reservationRepo struct {
	store *Store
}

func (r *reservationRepo) Create(ctx context.Context, res *reservation.Reservation) error {
	return r.store.with(ctx, func(st *state) error {
		if res.IsActive() && res.IsBound() {
			for _, existing := range st.reservations {
				if existing.IsActive() && existing.BoundTo(*res.CopyID) {
					return reservation.ErrReservationAlreadyActive
				}
			}
		}
		st.nextReservationID++
		res.ID = st.nextReservationID
		st.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) FindByID(ctx context.Context, id uint) (*reservation.Reservation, error) {
	var out *reservation.Reservation
	err := r.store.with(ctx, func(st *state) error {
		res, ok := st.reservations[id]
		if !ok {
			return reservation.ErrReservationNotFound
		}
		out = &res
		return nil
	})
	return out, err
}

func (r *reservationRepo) Update(ctx context.Context, res *reservation.Reservation) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.reservations[res.ID]; !ok {
			return reservation.ErrReservationNotFound
		}
		st.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) Delete(ctx context.Context, id uint) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.reservations[id]; !ok {
			return reservation.ErrReservationNotFound
		}
		delete(st.reservations, id)
		return nil
	})
}

func (r *reservationRepo) FindActiveByTitle(ctx context.Context, titleID uint) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	err := r.store.with(ctx, func(st *state) error {
		for _, res := range st.reservations {
			if res.TitleID == titleID && res.IsActive() {
				res := res
				out = append(out, &res)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReservedOn.Equal(out[j].ReservedOn) {
			return out[i].ReservedOn.Before(out[j].ReservedOn)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *reservationRepo) ExpireLapsed(ctx context.Context, titleID uint, asOf time.Time) (int64, error) {
	var n int64
	err := r.store.with(ctx, func(st *state) error {
		for id, res := range st.reservations {
			if titleID != 0 && res.TitleID != titleID {
				continue
			}
			if res.IsActive() && res.IsLapsed(asOf) {
				res.Status = reservation.StatusExpired
				res.UpdatedAt = time.Now()
				st.reservations[id] = res
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *reservationRepo) ListByPatron(ctx context.Context, patronID uint, page, pageSize int) ([]*reservation.Reservation, int64, error) {
	var all []*reservation.Reservation
	err := r.store.with(ctx, func(st *state) error {
		for _, res := range st.reservations {
			if res.PatronID == patronID {
				res := res
				all = append(all, &res)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ReservedOn.Equal(all[j].ReservedOn) {
			return all[i].ReservedOn.After(all[j].ReservedOn)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page, pageSize), int64(len(all)), nil
}
