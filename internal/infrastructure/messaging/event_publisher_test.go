package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/circuitbreaker"
)

type fakeBroker struct {
	mu   sync.Mutex
	err  error
	keys []string
}

func (b *fakeBroker) Exchange() string { return "library.circulation" }

func (b *fakeBroker) Publish(ctx context.Context, routingKey string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.keys = append(b.keys, routingKey)
	return nil
}

func TestEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	broker := &fakeBroker{}
	pub := NewEventPublisher(broker, NewBreaker())

	require.NoError(t, pub.Publish(ctx, circulation.NewEvent(circulation.EventLoanCreated, map[string]interface{}{"loan_id": 1})))
	require.NoError(t, pub.Publish(ctx, circulation.NewEvent(circulation.EventReturnRegistered, nil)))
	assert.Equal(t, []string{"loan.created", "return.registered"}, broker.keys)
}

func TestEventPublisher_BreakerOpens(t *testing.T) {
	ctx := context.Background()
	broker := &fakeBroker{err: errors.New("connection reset")}
	pub := NewEventPublisher(broker, NewBreaker())

	evt := circulation.NewEvent(circulation.EventLoanCancelled, nil)
	for i := 0; i < 5; i++ {
		assert.Error(t, pub.Publish(ctx, evt))
	}

	err := pub.Publish(ctx, evt)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	t.Log("✓ MQ持续失败后快速失败")

	// 事务提交后的通知只记录日志，不向调用方返回错误
	circulation.Notify(ctx, pub, evt)
}

func TestNewPublisher_WithoutURL(t *testing.T) {
	pub, cleanup := NewPublisher(&config.Config{})
	defer cleanup()

	_, ok := pub.(LogPublisher)
	assert.True(t, ok)
	assert.NoError(t, pub.Publish(context.Background(), circulation.NewEvent(circulation.EventReservationsExpired, nil)))
}
