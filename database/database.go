// Package database 管理历史库的 GORM 连接.
package database

import (
	"errors"
	"time"

	"github.com/wyfcoding/optiblend/config"
	"github.com/wyfcoding/optiblend/logging"
	"github.com/wyfcoding/optiblend/xerrors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"
)

// ErrTransactionFailed 事务执行失败.
var ErrTransactionFailed = errors.New("transaction failed")

const defaultSlowThreshold = 200 * time.Millisecond

// DB 封装了 GORM 实例.
type DB struct {
	*gorm.DB
	cfg    *config.DatabaseConfig
	logger *logging.Logger
}

// NewDB 初始化并返回历史库连接封装, 当前仅支持 postgres.
func NewDB(cfg config.DatabaseConfig, logger *logging.Logger) (*DB, error) {
	slowThreshold := cfg.SlowThreshold
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	var gormLogger gormlog.Interface = logging.NewGormLogger(logger, slowThreshold)
	if cfg.LogLevel > 0 {
		gormLogger = gormLogger.LogMode(cfg.LogLevel)
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, xerrors.WrapInternal(err, "failed to open database connection")
	}

	sqlDB, errDB := gormDB.DB()
	if errDB != nil {
		return nil, xerrors.WrapInternal(errDB, "failed to get underlying sql.DB")
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &DB{DB: gormDB, cfg: &cfg, logger: logger}, nil
}

// Transaction 封装事务逻辑.
func (db *DB) Transaction(fc func(tx *gorm.DB) error) error {
	if err := db.DB.Transaction(fc); err != nil {
		return xerrors.Wrap(err, xerrors.ErrInternal, ErrTransactionFailed.Error())
	}

	return nil
}

// RawDB 暴露原始 GORM 实例.
func (db *DB) RawDB() *gorm.DB {
	return db.DB
}
