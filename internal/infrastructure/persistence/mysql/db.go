package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境打印SQL（输出到zerolog），生产环境关闭
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("✓ 数据库连接成功")
	return db, nil
}

// gormWriter GORM日志输出到zerolog
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	log.Debug().Str("component", "gorm").Msgf(format, args...)
}

// Migrate 迁移表结构
// AutoMigrate只会创建表、添加字段/索引，不会删除或修改现有字段
// 外键由模型上的关联字段生成：借阅/预约/归还引用的书目、副本、读者、馆员都不允许悬空，
// 被引用的行拒绝删除；归还记录随借阅级联删除
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&TitleModel{},
		&CopyModel{},
		&PatronModel{},
		&OperatorModel{},
		&LoanModel{},
		&ReservationModel{},
		&ReturnModel{},
	)
}

// TitleModel 书目表
// 所有流通写操作都先锁这一行，同一书目下的操作因此串行
type TitleModel struct {
	ID              uint      `gorm:"primaryKey"`
	Name            string    `gorm:"size:200;not null;comment:书名"`
	PublicationYear int       `gorm:"comment:出版年份"`
	State           int       `gorm:"type:tinyint;not null;default:1;comment:状态(1在架2已下架)"`
	CreatedAt       time.Time `gorm:"comment:创建时间"`
	UpdatedAt       time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (TitleModel) TableName() string {
	return "titles"
}

// CopyModel 副本表
// 设计说明：
// 1. 流通状态不落库，由借阅/预约推导
// 2. 软删除：历史借阅仍通过外键引用被删除的副本
// 3. external_code唯一（含已删除副本，条码不复用）
type CopyModel struct {
	ID           uint           `gorm:"primaryKey"`
	TitleID      uint           `gorm:"index;not null;comment:书目ID"`
	Title        TitleModel     `gorm:"foreignKey:TitleID;constraint:OnDelete:RESTRICT"`
	ExternalCode string         `gorm:"uniqueIndex;size:64;not null;comment:外部条码"`
	Disposition  int            `gorm:"type:tinyint;not null;default:1;comment:处置状态(1流通2报废)"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
	DeletedAt    gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (CopyModel) TableName() string {
	return "copies"
}

// PatronModel 读者表
type PatronModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null;comment:姓名"`
	Active    bool      `gorm:"not null;default:true;comment:是否启用"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (PatronModel) TableName() string {
	return "patrons"
}

// OperatorModel 馆员表
type OperatorModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null;comment:姓名"`
	Active    bool      `gorm:"not null;default:true;comment:是否启用"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OperatorModel) TableName() string {
	return "operators"
}

// LoanModel 借阅表
// active_copy_id是生成列：借出中时等于copy_id，否则为NULL
// 唯一索引保证同一副本最多一条借出中的记录（NULL不参与唯一约束）
type LoanModel struct {
	ID           uint          `gorm:"primaryKey"`
	CopyID       uint          `gorm:"index;not null;comment:副本ID"`
	Copy         CopyModel     `gorm:"foreignKey:CopyID;constraint:OnDelete:RESTRICT"`
	PatronID     uint          `gorm:"index:idx_patron_checkout;not null;comment:读者ID"`
	Patron       PatronModel   `gorm:"foreignKey:PatronID;constraint:OnDelete:RESTRICT"`
	OperatorID   uint          `gorm:"index;not null;comment:办理馆员ID"`
	Operator     OperatorModel `gorm:"foreignKey:OperatorID;constraint:OnDelete:RESTRICT"`
	CheckoutDate time.Time     `gorm:"type:date;index:idx_patron_checkout;not null;comment:借出日期"`
	DueDate      time.Time     `gorm:"type:date;index;not null;comment:应还日期"`
	ReturnedOn   *time.Time    `gorm:"type:date;comment:归还日期"`
	Status       int           `gorm:"type:tinyint;index;not null;default:1;comment:状态(1借出中2已归还3已取消)"`
	ActiveCopyID *uint         `gorm:"->;type:int unsigned GENERATED ALWAYS AS (IF(status = 1, copy_id, NULL)) STORED;uniqueIndex:uk_loans_active_copy"`
	CreatedAt    time.Time     `gorm:"comment:创建时间"`
	UpdatedAt    time.Time     `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LoanModel) TableName() string {
	return "loans"
}

// ReservationModel 预约表
// copy_id为NULL表示书目级排队预约
// active_copy_id同借阅表：同一副本最多一条有效预约
type ReservationModel struct {
	ID           uint           `gorm:"primaryKey"`
	PatronID     uint           `gorm:"index:idx_patron_reserved;not null;comment:读者ID"`
	Patron       PatronModel    `gorm:"foreignKey:PatronID;constraint:OnDelete:RESTRICT"`
	OperatorID   *uint          `gorm:"index;comment:代办馆员ID"`
	Operator     *OperatorModel `gorm:"foreignKey:OperatorID;constraint:OnDelete:RESTRICT"`
	TitleID      uint           `gorm:"index:idx_title_status;not null;comment:书目ID"`
	Title        TitleModel     `gorm:"foreignKey:TitleID;constraint:OnDelete:RESTRICT"`
	CopyID       *uint          `gorm:"index;comment:副本ID"`
	Copy         *CopyModel     `gorm:"foreignKey:CopyID;constraint:OnDelete:RESTRICT"`
	ReservedOn   time.Time      `gorm:"type:date;index:idx_patron_reserved;not null;comment:预约日期"`
	ExpiresOn    time.Time      `gorm:"type:date;index;not null;comment:有效期"`
	Status       int            `gorm:"type:tinyint;index:idx_title_status;not null;default:1;comment:状态(1有效2已兑现3已取消4已过期)"`
	ActiveCopyID *uint          `gorm:"->;type:int unsigned GENERATED ALWAYS AS (IF(status = 1, copy_id, NULL)) STORED;uniqueIndex:uk_reservations_active_copy"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ReservationModel) TableName() string {
	return "reservations"
}

// ReturnModel 归还记录表
// 每笔借阅至多一条；借阅删除时级联删除
type ReturnModel struct {
	ID         uint          `gorm:"primaryKey"`
	LoanID     uint          `gorm:"uniqueIndex;not null;comment:借阅ID"`
	Loan       LoanModel     `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
	OperatorID uint          `gorm:"index;not null;comment:办理馆员ID"`
	Operator   OperatorModel `gorm:"foreignKey:OperatorID;constraint:OnDelete:RESTRICT"`
	ReturnedOn time.Time     `gorm:"type:date;not null;comment:归还日期"`
	CreatedAt  time.Time     `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (ReturnModel) TableName() string {
	return "returns"
}
