package reservation

import (
	"time"

	"github.com/xiebiao/library/pkg/civil"
)

// DefaultValidityDays 预约默认有效天数
const DefaultValidityDays = 3

// ValidityPolicy 预约有效期策略
type ValidityPolicy struct {
	Days int // 默认有效天数
}

// NewValidityPolicy 创建有效期策略，days<=0时使用默认值
func NewValidityPolicy(days int) ValidityPolicy {
	if days <= 0 {
		days = DefaultValidityDays
	}
	return ValidityPolicy{Days: days}
}

// ExpiresOn 计算有效期
// 规则：
// 1. 基准为请求的有效期，未指定时为预约日+Days
// 2. 副本借出中时，至少延长到借阅应还日+1天，排队预约不会在副本可能空出之前失效
func (p ValidityPolicy) ExpiresOn(reservedOn time.Time, requested *time.Time, blockingDue *time.Time) time.Time {
	base := civil.AddDays(reservedOn, p.Days)
	if requested != nil {
		base = civil.Date(*requested)
	}
	if blockingDue != nil {
		base = civil.Max(base, civil.AddDays(*blockingDue, 1))
	}
	return base
}
