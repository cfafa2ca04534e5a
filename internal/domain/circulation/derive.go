package circulation

import (
	"sort"
	"time"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
)

// Holdings 一个书目下参与推导的全部记录
// 由Arbiter在事务内加锁读取，Derive本身是纯函数
type Holdings struct {
	Title        *catalog.Title
	Copies       []*catalog.Copy
	Loans        map[uint]*loan.Loan        // 副本ID → 有效借阅
	Reservations []*reservation.Reservation // 书目下的有效预约
}

// Snapshot 推导结果
type Snapshot struct {
	states map[uint]CopyState
	order  []uint
	queue  []*reservation.Reservation
}

// Derive 推导书目下每个副本的流通状态
// 按优先级取第一个命中的：
//  1. reserved：存在绑定该副本且未过期的有效预约（借出中排队的预约也算，此时Loan仍然带出）
//  2. on_loan：存在有效借阅
//  3. reserved：书目级预约按(预约日期, ID)顺序与空闲副本按ID顺序一一绑定
//  4. discarded：书目已下架或副本已报废
//  5. available
// 借出中的副本无论显示为什么状态都不能再借，写操作以CopyState.OnLoan判断
func Derive(h *Holdings, asOf time.Time) *Snapshot {
	copies := make([]*catalog.Copy, len(h.Copies))
	copy(copies, h.Copies)
	sort.Slice(copies, func(i, j int) bool { return copies[i].ID < copies[j].ID })

	bound := make(map[uint]*reservation.Reservation)
	var queue []*reservation.Reservation
	for _, r := range h.Reservations {
		if !r.Holds(asOf) {
			continue
		}
		if r.IsBound() {
			bound[*r.CopyID] = r
			continue
		}
		queue = append(queue, r)
	}
	SortQueue(queue)

	delisted := h.Title != nil && h.Title.IsDelisted()
	snap := &Snapshot{
		states: make(map[uint]CopyState, len(copies)),
		order:  make([]uint, 0, len(copies)),
	}

	var free []uint
	for _, c := range copies {
		st := CopyState{CopyID: c.ID, Loan: h.Loans[c.ID], Reservation: bound[c.ID]}
		switch {
		case st.Reservation != nil:
			st.Status = StatusReserved
		case st.Loan != nil:
			st.Status = StatusOnLoan
		case delisted || c.IsDiscarded():
			st.Status = StatusDiscarded
		default:
			st.Status = StatusAvailable
			free = append(free, c.ID)
		}
		snap.states[c.ID] = st
		snap.order = append(snap.order, c.ID)
	}

	// 书目级预约绑定到空闲副本
	n := len(free)
	if len(queue) < n {
		n = len(queue)
	}
	for i := 0; i < n; i++ {
		st := snap.states[free[i]]
		st.Status = StatusReserved
		st.Reservation = queue[i]
		st.Matched = true
		snap.states[free[i]] = st
	}
	snap.queue = queue[n:]

	return snap
}

// SortQueue 书目级预约的服务顺序：预约日期优先，同一天按ID
func SortQueue(queue []*reservation.Reservation) {
	sort.SliceStable(queue, func(i, j int) bool {
		if !queue[i].ReservedOn.Equal(queue[j].ReservedOn) {
			return queue[i].ReservedOn.Before(queue[j].ReservedOn)
		}
		return queue[i].ID < queue[j].ID
	})
}

// Of 查询副本状态
func (s *Snapshot) Of(copyID uint) (CopyState, bool) {
	st, ok := s.states[copyID]
	return st, ok
}

// All 按副本ID升序返回全部状态
func (s *Snapshot) All() []CopyState {
	out := make([]CopyState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.states[id])
	}
	return out
}

// First 返回ID最小的满足条件的副本
func (s *Snapshot) First(match func(CopyState) bool) (CopyState, bool) {
	for _, id := range s.order {
		if st := s.states[id]; match(st) {
			return st, true
		}
	}
	return CopyState{}, false
}

// Waiting 尚未绑定到副本的书目级预约（按服务顺序）
func (s *Snapshot) Waiting() []*reservation.Reservation {
	return s.queue
}

// Count 按状态计数
func (s *Snapshot) Count() map[Status]int {
	counts := make(map[Status]int)
	for _, st := range s.states {
		counts[st.Status]++
	}
	return counts
}

// EarliestDue 书目下有效借阅中最早的应还日期
func (h *Holdings) EarliestDue() *time.Time {
	var earliest *time.Time
	for _, l := range h.Loans {
		if earliest == nil || l.DueDate.Before(*earliest) {
			due := l.DueDate
			earliest = &due
		}
	}
	return earliest
}

// Copy 按ID查找书目下的副本
func (h *Holdings) Copy(copyID uint) *catalog.Copy {
	for _, c := range h.Copies {
		if c.ID == copyID {
			return c
		}
	}
	return nil
}

// HasCirculating 书目下是否还有可流通的副本
func (h *Holdings) HasCirculating() bool {
	if h.Title != nil && h.Title.IsDelisted() {
		return false
	}
	for _, c := range h.Copies {
		if !c.IsDiscarded() {
			return true
		}
	}
	return false
}
