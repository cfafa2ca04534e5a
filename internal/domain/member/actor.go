// Package member 读者与馆员目录
// 流通引擎只关心两件事：身份是否存在、是否处于启用状态
package member

import (
	"context"
	"fmt"
)

// Kind 参与者类型
type Kind int

const (
	KindPatron   Kind = 1 // 读者
	KindOperator Kind = 2 // 馆员
)

// String 实现Stringer接口
func (k Kind) String() string {
	switch k {
	case KindPatron:
		return "patron"
	case KindOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// ParseKind 解析参与者类型（JWT中的role字段）
func ParseKind(s string) (Kind, error) {
	switch s {
	case "patron":
		return KindPatron, nil
	case "operator":
		return KindOperator, nil
	default:
		return 0, fmt.Errorf("unknown member kind %q", s)
	}
}

// Capability 操作能力
type Capability string

const (
	CapReserve       Capability = "reserve"        // 发起/取消自己的预约
	CapViewOwn       Capability = "view_own"       // 查看自己的借阅和预约
	CapCirculate     Capability = "circulate"      // 借出、归还、取消借阅
	CapManageCatalog Capability = "manage_catalog" // 书目与副本登记、下架、删除
	CapReport        Capability = "report"         // 查看统计报表
	CapSweep         Capability = "sweep"          // 手动触发预约过期清理
)

var defaultCapabilities = map[Kind][]Capability{
	KindPatron:   {CapReserve, CapViewOwn},
	KindOperator: {CapReserve, CapViewOwn, CapCirculate, CapManageCatalog, CapReport, CapSweep},
}

// Actor 已认证的参与者
// 由认证中间件解析一次，之后按能力判断权限，不再比较角色字符串
type Actor struct {
	Kind         Kind
	ID           uint
	capabilities map[Capability]struct{}
}

// NewActor 创建参与者，能力集合由类型决定
func NewActor(kind Kind, id uint) Actor {
	caps := make(map[Capability]struct{})
	for _, c := range defaultCapabilities[kind] {
		caps[c] = struct{}{}
	}
	return Actor{Kind: kind, ID: id, capabilities: caps}
}

// Can 是否拥有能力
func (a Actor) Can(c Capability) bool {
	_, ok := a.capabilities[c]
	return ok
}

// IsPatron 是否读者
func (a Actor) IsPatron() bool {
	return a.Kind == KindPatron
}

// IsOperator 是否馆员
func (a Actor) IsOperator() bool {
	return a.Kind == KindOperator
}

// Owns 读者只能操作自己的数据，馆员不受限
func (a Actor) Owns(patronID uint) bool {
	if a.IsOperator() {
		return true
	}
	return a.ID == patronID
}

type actorKey struct{}

// NewContext 把参与者放入ctx（gRPC拦截器使用）
func NewContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext 取出参与者
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
