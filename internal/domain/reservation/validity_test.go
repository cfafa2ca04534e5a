package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestValidityPolicy_ExpiresOn(t *testing.T) {
	p := NewValidityPolicy(0)
	assert.Equal(t, DefaultValidityDays, p.Days)

	t.Run("默认为预约日+3天", func(t *testing.T) {
		assert.Equal(t, day("2024-01-05"), p.ExpiresOn(day("2024-01-02"), nil, nil))
	})

	t.Run("副本借出中时至少延长到应还日+1天", func(t *testing.T) {
		due := day("2024-01-15")
		assert.Equal(t, day("2024-01-16"), p.ExpiresOn(day("2024-01-02"), nil, &due))
	})

	t.Run("请求的有效期晚于应还日时保留请求值", func(t *testing.T) {
		due := day("2024-01-15")
		req := day("2024-02-01")
		assert.Equal(t, req, p.ExpiresOn(day("2024-01-02"), &req, &due))
	})

	t.Run("请求的有效期早于应还日时被延长", func(t *testing.T) {
		due := day("2024-01-15")
		req := day("2024-01-03")
		assert.Equal(t, day("2024-01-16"), p.ExpiresOn(day("2024-01-02"), &req, &due))
	})
}

func TestReservation_Lifecycle(t *testing.T) {
	r := NewReservation(1, nil, 9, 0, day("2024-01-02"), day("2024-01-05"))
	assert.False(t, r.IsBound())
	assert.True(t, r.Holds(day("2024-01-05")))
	assert.False(t, r.Holds(day("2024-01-06")))

	assert.NoError(t, r.Fulfill(101))
	assert.True(t, r.BoundTo(101))
	assert.Equal(t, StatusFulfilled, r.Status)

	assert.ErrorIs(t, r.Cancel(), ErrReservationNotCancellable)
	assert.ErrorIs(t, r.Expire(), ErrReservationNotActive)
}
