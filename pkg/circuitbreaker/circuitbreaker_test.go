package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("broker unavailable")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newBreaker(t *testing.T, cfg Config) (*CircuitBreaker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New("test", cfg)
	cb.now = clock.Now
	cb.expiry = clock.Now().Add(cb.config.Interval)
	return cb, clock
}

func fail(ctx context.Context) error    { return errDown }
func succeed(ctx context.Context) error { return nil }

func TestCircuitBreaker_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("成功请求保持关闭", func(t *testing.T) {
		cb, _ := newBreaker(t, Config{})
		for i := 0; i < 10; i++ {
			require.NoError(t, cb.Execute(ctx, succeed))
		}
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, uint32(10), cb.Counts().TotalSuccesses)
	})

	t.Run("连续失败后熔断并拒绝请求", func(t *testing.T) {
		cb, _ := newBreaker(t, Config{})
		for i := 0; i < 5; i++ {
			assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
		}
		assert.Equal(t, StateOpen, cb.State())

		called := false
		err := cb.Execute(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrOpenState)
		assert.False(t, called)
		t.Log("✓ 熔断期间不调用下游")
	})

	t.Run("超时后半开，探测成功则关闭", func(t *testing.T) {
		cb, clock := newBreaker(t, Config{Timeout: time.Second})
		for i := 0; i < 5; i++ {
			_ = cb.Execute(ctx, fail)
		}
		clock.Advance(2 * time.Second)
		assert.Equal(t, StateHalfOpen, cb.State())

		require.NoError(t, cb.Execute(ctx, succeed))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("半开探测失败重新熔断", func(t *testing.T) {
		cb, clock := newBreaker(t, Config{Timeout: time.Second})
		for i := 0; i < 5; i++ {
			_ = cb.Execute(ctx, fail)
		}
		clock.Advance(2 * time.Second)
		assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("统计窗口结束后计数清零", func(t *testing.T) {
		cb, clock := newBreaker(t, Config{Interval: time.Second})
		for i := 0; i < 4; i++ {
			_ = cb.Execute(ctx, fail)
		}
		clock.Advance(2 * time.Second)
		_ = cb.Execute(ctx, fail)
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
	})
}

func TestCircuitBreaker_Callbacks(t *testing.T) {
	var (
		transitions []string
		results     = map[string]int{}
	)
	cb, _ := newBreaker(t, Config{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
		OnResult: func(name, result string) { results[result]++ },
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, succeed)
	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, succeed)

	assert.Equal(t, []string{"CLOSED->OPEN"}, transitions)
	assert.Equal(t, map[string]int{ResultSuccess: 1, ResultFailure: 2, ResultRejected: 1}, results)
}

func TestCircuitBreaker_CancelledNotCounted(t *testing.T) {
	cb, _ := newBreaker(t, Config{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.Counts().Requests)
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb, _ := newBreaker(t, Config{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(ctx, succeed)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint32(50), cb.Counts().TotalSuccesses)
}
