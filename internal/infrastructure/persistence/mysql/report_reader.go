package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/application/report"
	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/civil"
)

// reportReader 报表查询
// 报表是跨表聚合的只读查询，用goqu拼SQL、sqlx扫描到结构体，不经过GORM模型
type reportReader struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// NewReportReader 复用GORM的连接池创建报表查询
func NewReportReader(db *gorm.DB) (report.Reader, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	return newReportReader(sqlx.NewDb(sqlDB, "mysql")), nil
}

func newReportReader(db *sqlx.DB) *reportReader {
	return &reportReader{db: db, dialect: goqu.Dialect("mysql")}
}

// OverdueLoans 截至asOf仍未归还且已过应还日期的借阅
func (r *reportReader) OverdueLoans(ctx context.Context, asOf time.Time, limit int) ([]report.OverdueLoan, error) {
	query, args, err := r.overdueQuery(asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("构建逾期查询失败: %w", err)
	}
	var items []report.OverdueLoan
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, dbError(err, "查询逾期借阅失败")
	}
	for i := range items {
		items[i].DueDate = civil.Date(items[i].DueDate)
	}
	return items, nil
}

func (r *reportReader) overdueQuery(asOf time.Time, limit int) (string, []interface{}, error) {
	return r.dialect.
		From(goqu.T("loans").As("l")).
		Join(goqu.T("copies").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("l.copy_id")))).
		Join(goqu.T("titles").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("c.title_id")))).
		Select(
			goqu.I("l.id").As("loan_id"),
			goqu.I("l.copy_id").As("copy_id"),
			goqu.I("t.id").As("title_id"),
			goqu.I("t.name").As("title_name"),
			goqu.I("l.patron_id").As("patron_id"),
			goqu.I("l.due_date").As("due_date"),
		).
		Where(
			goqu.I("l.status").Eq(int(loan.StatusActive)),
			goqu.I("l.due_date").Lt(civil.Format(asOf)),
		).
		Order(goqu.I("l.due_date").Asc(), goqu.I("l.id").Asc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
}

// Summary 各类记录的计数
func (r *reportReader) Summary(ctx context.Context, asOf time.Time) (*report.Summary, error) {
	query, args, err := r.summaryQuery(asOf)
	if err != nil {
		return nil, fmt.Errorf("构建概况查询失败: %w", err)
	}
	var s report.Summary
	if err := r.db.GetContext(ctx, &s, query, args...); err != nil {
		return nil, dbError(err, "查询流通概况失败")
	}
	return &s, nil
}

func (r *reportReader) summaryQuery(asOf time.Time) (string, []interface{}, error) {
	day := civil.Format(asOf)
	count := func(table string, where ...exp.Expression) *goqu.SelectDataset {
		return r.dialect.From(table).Select(goqu.COUNT(goqu.Star())).Where(where...)
	}
	liveCopies := goqu.C("deleted_at").IsNull()
	active := int(reservation.StatusActive)

	return r.dialect.Select(
		count("titles").As("titles"),
		count("copies", liveCopies, goqu.C("disposition").Eq(int(catalog.DispositionCirculating))).As("circulating_copies"),
		count("copies", liveCopies, goqu.C("disposition").Eq(int(catalog.DispositionDiscarded))).As("discarded_copies"),
		count("loans", goqu.C("status").Eq(int(loan.StatusActive))).As("active_loans"),
		count("loans", goqu.C("status").Eq(int(loan.StatusActive)), goqu.C("due_date").Lt(day)).As("overdue_loans"),
		count("reservations", goqu.C("status").Eq(active), goqu.C("expires_on").Gte(day)).As("active_reservations"),
		count("reservations", goqu.C("status").Eq(active), goqu.C("expires_on").Gte(day), goqu.C("copy_id").IsNull()).As("queued_reservations"),
		count("returns").As("returns_registered"),
	).Prepared(true).ToSQL()
}
