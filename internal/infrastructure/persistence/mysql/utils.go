package mysql

import (
	"context"
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// MySQL错误码
const (
	errDuplicateEntry   = 1062 // Duplicate entry 'xxx' for key 'yyy'
	errLockWaitTimeout  = 1205 // Lock wait timeout exceeded
	errDeadlock         = 1213 // Deadlock found when trying to get lock
	errNoReferencedRow  = 1452 // Cannot add or update a child row: a foreign key constraint fails
	errRowIsReferenced2 = 1451 // Cannot delete or update a parent row: a foreign key constraint fails
)

func mysqlErrorNumber(err error) uint16 {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

// isDuplicateError 判断是否为MySQL唯一索引冲突错误
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return mysqlErrorNumber(err) == errDuplicateEntry
}

// isTransient 死锁或锁等待超时，整个事务可以原样重试
func isTransient(err error) bool {
	switch mysqlErrorNumber(err) {
	case errLockWaitTimeout, errDeadlock:
		return true
	}
	return false
}

// isForeignKeyError 外键约束失败
func isForeignKeyError(err error) bool {
	switch mysqlErrorNumber(err) {
	case errNoReferencedRow, errRowIsReferenced2:
		return true
	}
	return false
}

// errDanglingReference 写入的记录引用了不存在的行
var errDanglingReference = apperrors.ErrInvalidParams.WithDetail("关联记录不存在")

// dbError 包装数据库错误：可重试的转为Transient，其余为内部错误
func dbError(err error, message string) error {
	if isTransient(err) {
		return apperrors.Transient(err)
	}
	return apperrors.Wrap(err, message)
}

// txKey context中事务DB的key
type txKey struct{}

// conn 仓储公共部分：从context获取事务DB，没有则使用默认DB
type conn struct {
	db *gorm.DB
}

func (c conn) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return c.db.WithContext(ctx)
}
