package mysql

import (
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

func TestErrorClassification(t *testing.T) {
	deadlock := fmt.Errorf("exec: %w", &mysqldriver.MySQLError{Number: errDeadlock, Message: "Deadlock found"})
	lockWait := &mysqldriver.MySQLError{Number: errLockWaitTimeout, Message: "Lock wait timeout exceeded"}
	duplicate := &mysqldriver.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry"}
	foreignKey := &mysqldriver.MySQLError{Number: errNoReferencedRow, Message: "foreign key constraint fails"}

	t.Run("死锁和锁等待超时可重试", func(t *testing.T) {
		assert.True(t, isTransient(deadlock))
		assert.True(t, isTransient(lockWait))
		assert.False(t, isTransient(duplicate))
		assert.True(t, apperrors.IsTransient(dbError(deadlock, "查询失败")))
	})

	t.Run("唯一索引冲突", func(t *testing.T) {
		assert.True(t, isDuplicateError(duplicate))
		assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
		assert.False(t, isDuplicateError(nil))
		assert.False(t, isDuplicateError(lockWait))
	})

	t.Run("外键约束", func(t *testing.T) {
		assert.True(t, isForeignKeyError(foreignKey))
		assert.True(t, isForeignKeyError(&mysqldriver.MySQLError{Number: errRowIsReferenced2}))
		assert.False(t, isForeignKeyError(duplicate))
	})

	t.Run("其他错误为内部错误", func(t *testing.T) {
		err := dbError(fmt.Errorf("connection refused"), "查询失败")
		assert.False(t, apperrors.IsTransient(err))
		assert.Equal(t, apperrors.KindInternal, apperrors.GetAppError(err).Kind())
	})
}
