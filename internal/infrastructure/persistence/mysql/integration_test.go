package mysql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apploan "github.com/xiebiao/library/internal/application/loan"
	appreturns "github.com/xiebiao/library/internal/application/returns"
	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/domain/returns"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// openTestDB 连接测试库并建表
// DSN示例：root:root@tcp(127.0.0.1:3306)/library_test?parseTime=true&loc=UTC
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("LIBRARY_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("未设置LIBRARY_TEST_MYSQL_DSN，跳过MySQL集成测试")
	}
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, mysql.Migrate(db))
	return db
}

type env struct {
	tx       *mysql.TxManager
	titles   catalog.TitleRepository
	copies   catalog.CopyRepository
	members  member.Registry
	arbiter  *circulation.Arbiter
	create   *apploan.CreateLoanUseCase
	ret      *appreturns.RegisterReturnUseCase
	operator uint
}

func newEnv(t *testing.T, db *gorm.DB) *env {
	t.Helper()
	titles := mysql.NewTitleRepository(db)
	copies := mysql.NewCopyRepository(db)
	loans := mysql.NewLoanRepository(db)
	reservations := mysql.NewReservationRepository(db)
	members := mysql.NewMemberRepository(db)
	tx := mysql.NewTxManager(db, 3)
	clock := circulation.FixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	arbiter := circulation.NewArbiter(clock, titles, copies, loans, reservations)

	op, err := members.Add(context.Background(), member.KindOperator, "集成测试馆员")
	require.NoError(t, err)

	return &env{
		tx:       tx,
		titles:   titles,
		copies:   copies,
		members:  members,
		arbiter:  arbiter,
		create:   apploan.NewCreateLoanUseCase(tx, arbiter, loans, reservations, members, circulation.NopPublisher{}, clock),
		ret:      appreturns.NewRegisterReturnUseCase(tx, arbiter, loans, mysql.NewReturnRepository(db), members, circulation.NopPublisher{}, clock),
		operator: op.ID,
	}
}

func (e *env) copy(t *testing.T) uint {
	t.Helper()
	ctx := context.Background()
	title := catalog.NewTitle("集成测试书目", 2024)
	require.NoError(t, e.titles.Create(ctx, title))
	c := catalog.NewCopy(title.ID, "IT-"+uuid.NewString()[:8], catalog.DispositionCirculating)
	require.NoError(t, e.copies.Create(ctx, c))
	return c.ID
}

func (e *env) patron(t *testing.T) uint {
	t.Helper()
	p, err := e.members.Add(context.Background(), member.KindPatron, "集成测试读者")
	require.NoError(t, err)
	return p.ID
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestLoanLifecycle(t *testing.T) {
	db := openTestDB(t)
	e := newEnv(t, db)
	ctx := context.Background()
	copyID := e.copy(t)
	p1, p2 := e.patron(t), e.patron(t)

	resp, err := e.create.Execute(ctx, apploan.CreateLoanRequest{
		CopyID: copyID, PatronID: p1, OperatorID: e.operator,
		CheckoutDate: day("2024-01-01"), DueDate: day("2024-01-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "on_loan", resp.CopyStatus)

	t.Run("借出中的副本不能再借", func(t *testing.T) {
		_, err := e.create.Execute(ctx, apploan.CreateLoanRequest{
			CopyID: copyID, PatronID: p2, OperatorID: e.operator,
			CheckoutDate: day("2024-01-02"), DueDate: day("2024-01-16"),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeCopyUnavailable, apperrors.GetAppError(err).Code)
	})

	ret, err := e.ret.Execute(ctx, appreturns.RegisterReturnRequest{
		LoanID: resp.Loan.ID, OperatorID: e.operator, ReturnDate: day("2024-01-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "available", ret.CopyStatus)
	assert.Equal(t, "2024-01-10", ret.ReturnedOn)

	t.Run("停用读者不能借", func(t *testing.T) {
		require.NoError(t, e.members.SetActive(ctx, member.KindPatron, p2, false))
		_, err := e.create.Execute(ctx, apploan.CreateLoanRequest{
			CopyID: copyID, PatronID: p2, OperatorID: e.operator,
			CheckoutDate: day("2024-01-11"), DueDate: day("2024-01-20"),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodePatronInactive, apperrors.GetAppError(err).Code)
	})

	t.Log("✓ MySQL上的借出 → 冲突 → 归还")
}

// 借阅、预约、归还引用不存在的读者/馆员/副本时由外键拒绝
func TestForeignKeys(t *testing.T) {
	db := openTestDB(t)
	e := newEnv(t, db)
	ctx := context.Background()
	copyID := e.copy(t)
	patronID := e.patron(t)
	c, err := e.copies.FindByID(ctx, copyID)
	require.NoError(t, err)

	const missing = uint(1 << 30)
	loans := mysql.NewLoanRepository(db)
	reservations := mysql.NewReservationRepository(db)

	t.Run("借阅引用不存在的读者", func(t *testing.T) {
		l, err := loan.NewLoan(copyID, missing, e.operator, day("2024-01-01"), day("2024-01-15"))
		require.NoError(t, err)
		err = loans.Create(ctx, l)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidParams)
	})

	t.Run("借阅引用不存在的馆员", func(t *testing.T) {
		l, err := loan.NewLoan(copyID, patronID, missing, day("2024-01-01"), day("2024-01-15"))
		require.NoError(t, err)
		assert.ErrorIs(t, loans.Create(ctx, l), apperrors.ErrInvalidParams)
	})

	t.Run("预约引用不存在的副本", func(t *testing.T) {
		r := reservation.NewReservation(patronID, nil, c.TitleID, missing, day("2024-01-01"), day("2024-01-04"))
		assert.ErrorIs(t, reservations.Create(ctx, r), apperrors.ErrInvalidParams)
	})

	t.Run("归还引用不存在的馆员", func(t *testing.T) {
		l, err := loan.NewLoan(copyID, patronID, e.operator, day("2024-01-01"), day("2024-01-15"))
		require.NoError(t, err)
		require.NoError(t, loans.Create(ctx, l))
		ret := returns.NewReturn(l.ID, missing, day("2024-01-05"))
		assert.ErrorIs(t, mysql.NewReturnRepository(db).Create(ctx, ret), apperrors.ErrInvalidParams)
	})

	t.Run("被引用的读者不能物理删除", func(t *testing.T) {
		err := db.Exec("DELETE FROM patrons WHERE id = ?", patronID).Error
		require.Error(t, err)
	})
	t.Log("✓ 外键拒绝悬空引用")
}

// 并发借同一副本：行锁串行化，只有一笔成功
func TestConcurrentLoans(t *testing.T) {
	db := openTestDB(t)
	e := newEnv(t, db)
	copyID := e.copy(t)

	const workers = 8
	patrons := make([]uint, workers)
	for i := range patrons {
		patrons[i] = e.patron(t)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(patronID uint) {
			defer wg.Done()
			_, err := e.create.Execute(context.Background(), apploan.CreateLoanRequest{
				CopyID: copyID, PatronID: patronID, OperatorID: e.operator,
				CheckoutDate: day("2024-01-01"), DueDate: day("2024-01-15"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.GetAppError(err).Code == apperrors.ErrCodeCopyUnavailable:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(patrons[i])
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	t.Logf("✓ %d个并发借出只有1个成功", workers)
}

func TestReportReader(t *testing.T) {
	db := openTestDB(t)
	e := newEnv(t, db)
	ctx := context.Background()
	copyID := e.copy(t)

	resp, err := e.create.Execute(ctx, apploan.CreateLoanRequest{
		CopyID: copyID, PatronID: e.patron(t), OperatorID: e.operator,
		CheckoutDate: day("2024-01-01"), DueDate: day("2024-01-05"),
	})
	require.NoError(t, err)

	reader, err := mysql.NewReportReader(db)
	require.NoError(t, err)

	items, err := reader.OverdueLoans(ctx, day("2024-01-10"), 500)
	require.NoError(t, err)
	var found bool
	for _, it := range items {
		if it.LoanID == resp.Loan.ID {
			found = true
			assert.Equal(t, copyID, it.CopyID)
			assert.Equal(t, "集成测试书目", it.TitleName)
		}
	}
	assert.True(t, found, "逾期列表应包含该借阅")

	summary, err := reader.Summary(ctx, day("2024-01-10"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.ActiveLoans, int64(1))
	assert.GreaterOrEqual(t, summary.OverdueLoans, int64(1))
}
