// Package apptest 用例测试的公共夹具
// 基于内存存储，提供书目/副本/成员的快速登记、可调时钟和事件记录器
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
)

// Day 解析YYYY-MM-DD，格式错误直接panic
func Day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Clock 可调时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now 实现circulation.Clock
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 设置当前日期
func (c *Clock) Set(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Day(day)
}

// Recorder 记录发布的事件
type Recorder struct {
	mu     sync.Mutex
	events []circulation.Event
}

// Publish 实现circulation.Publisher
func (r *Recorder) Publish(ctx context.Context, evt circulation.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Types 已发布事件的类型（按发布顺序）
func (r *Recorder) Types() []circulation.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]circulation.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// Last 最后一个事件
func (r *Recorder) Last() circulation.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return circulation.Event{}
	}
	return r.events[len(r.events)-1]
}

// Fixture 用例测试夹具
type Fixture struct {
	Store   *memory.Store
	Arbiter *circulation.Arbiter
	Events  *Recorder
	Clock   *Clock
}

// New 创建夹具，时钟默认为2024-01-01
func New() *Fixture {
	store := memory.NewStore()
	clock := &Clock{}
	clock.Set("2024-01-01")
	f := &Fixture{
		Store:   store,
		Arbiter: circulation.NewArbiter(clock, store.Titles(), store.Copies(), store.Loans(), store.Reservations()),
		Events:  &Recorder{},
		Clock:   clock,
	}
	return f
}

// Title 登记在架书目
func (f *Fixture) Title(t *testing.T, name string) uint {
	t.Helper()
	title := catalog.NewTitle(name, 2020)
	require.NoError(t, f.Store.Titles().Create(context.Background(), title))
	return title.ID
}

// Copy 登记流通中的副本
func (f *Fixture) Copy(t *testing.T, titleID uint, code string) uint {
	t.Helper()
	c := catalog.NewCopy(titleID, code, catalog.DispositionCirculating)
	require.NoError(t, f.Store.Copies().Create(context.Background(), c))
	return c.ID
}

// Patron 登记读者
func (f *Fixture) Patron(name string, active bool) uint {
	return f.Store.AddMember(member.KindPatron, name, active)
}

// Operator 登记馆员
func (f *Fixture) Operator(name string, active bool) uint {
	return f.Store.AddMember(member.KindOperator, name, active)
}

// StatusOf 加锁后按asOf投影副本状态（独立事务）
func (f *Fixture) StatusOf(t *testing.T, copyID uint, asOf string) circulation.CopyState {
	t.Helper()
	var st circulation.CopyState
	err := f.Store.Transaction(context.Background(), func(ctx context.Context) error {
		locked, _, err := f.Arbiter.LockCopy(ctx, copyID)
		if err != nil {
			return err
		}
		st, _ = locked.At(Day(asOf)).Of(copyID)
		return nil
	})
	require.NoError(t, err)
	return st
}
