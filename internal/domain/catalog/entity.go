package catalog

import (
	"time"
)

// TitleState 书目生命周期状态
type TitleState int

const (
	TitleActive   TitleState = 1 // 在架
	TitleDelisted TitleState = 2 // 已下架（不再流通）
)

// String 实现Stringer接口
func (s TitleState) String() string {
	switch s {
	case TitleActive:
		return "active"
	case TitleDelisted:
		return "delisted"
	default:
		return "unknown"
	}
}

// Title 书目实体（聚合根）
// 一个书目拥有零个或多个馆藏副本
type Title struct {
	ID              uint
	Name            string
	PublicationYear int
	State           TitleState
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewTitle 创建新书目
func NewTitle(name string, publicationYear int) *Title {
	now := time.Now()
	return &Title{
		Name:            name,
		PublicationYear: publicationYear,
		State:           TitleActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsDelisted 是否已下架
func (t *Title) IsDelisted() bool {
	return t.State == TitleDelisted
}

// Delist 下架书目（幂等）
func (t *Title) Delist() {
	t.State = TitleDelisted
	t.UpdatedAt = time.Now()
}

// Disposition 副本处置状态
// 注意：这不是流通状态。借出/预约/可借由关联的借阅、预约记录推导，不落库
type Disposition int

const (
	DispositionCirculating Disposition = 1 // 正常流通
	DispositionDiscarded   Disposition = 2 // 已报废（终态）
)

// String 实现Stringer接口
func (d Disposition) String() string {
	switch d {
	case DispositionCirculating:
		return "circulating"
	case DispositionDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// ParseDisposition 解析处置状态，空串视为circulating
func ParseDisposition(s string) (Disposition, bool) {
	switch s {
	case "", "circulating":
		return DispositionCirculating, true
	case "discarded":
		return DispositionDiscarded, true
	default:
		return 0, false
	}
}

// Copy 馆藏副本实体
// ID即副本的登记号（tag），ExternalCode为外部条码，两者都唯一
// 副本终身归属同一书目
type Copy struct {
	ID           uint
	TitleID      uint
	ExternalCode string
	Disposition  Disposition
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCopy 创建新副本
func NewCopy(titleID uint, externalCode string, disposition Disposition) *Copy {
	now := time.Now()
	return &Copy{
		TitleID:      titleID,
		ExternalCode: externalCode,
		Disposition:  disposition,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsDiscarded 是否已报废
func (c *Copy) IsDiscarded() bool {
	return c.Disposition == DispositionDiscarded
}
