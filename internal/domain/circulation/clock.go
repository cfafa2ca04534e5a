package circulation

import (
	"time"

	"github.com/xiebiao/library/pkg/civil"
)

// Clock 当前时间来源
// 请求未携带业务日期时，用它决定"今天"
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟
type SystemClock struct{}

// Now 实现Clock接口
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock 固定时钟（测试、批处理补跑）
type FixedClock time.Time

// Now 实现Clock接口
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today 时钟对应的日期
func Today(c Clock) time.Time {
	return civil.Date(c.Now())
}

// DateOr t为零值时取时钟当天
func DateOr(t time.Time, c Clock) time.Time {
	if t.IsZero() {
		return Today(c)
	}
	return civil.Date(t)
}
