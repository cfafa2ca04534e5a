// Package civil 日历日期工具
// 借阅、预约的日期字段只关心"哪一天"，统一截断到UTC零点后再比较和存储
package civil

import "time"

// Layout 日期格式（请求参数与响应统一使用）
const Layout = "2006-01-02"

// Date 截断到当天零点（UTC）
// 先取t所在时区的年月日，避免跨时区时日期漂移
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today 当前日期
func Today() time.Time {
	return Date(time.Now())
}

// AddDays 日期加减天数
func AddDays(t time.Time, days int) time.Time {
	return Date(t).AddDate(0, 0, days)
}

// Parse 解析YYYY-MM-DD
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}

// Format 格式化为YYYY-MM-DD，零值返回空串
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// Max 返回较晚的日期
func Max(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
