package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cashflow/config"
	"cashflow/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接并迁移表结构
func Init(cfg *config.Config) error {
	dialector, err := Dialector(cfg.Database)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.Database.LogLevel)),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 连接池参数
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.Database.Driver == "sqlite" {
		// SQLite 默认不校验外键
		_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
		_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	}

	return AutoMigrate(DB)
}

// AutoMigrate 自动迁移数据库表（基础数据在前，被引用的表先建）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Status{},
		&models.TransactionType{},
		&models.Category{},
		&models.Transaction{},
		&models.NameLock{},
	)
}

// Dialector 根据配置选择驱动
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(mysqlDSN(cfg)), nil
	case "postgres":
		return postgres.Open(postgresDSN(cfg)), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建数据库目录失败: %w", err)
			}
		}
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
	)
}

// postgresDSN TimeZone 为会话时区，须是 PostgreSQL 认识的 IANA 名称
func postgresDSN(cfg config.DatabaseConfig) string {
	tz := cfg.TimeZone
	if tz == "" {
		tz = config.DefaultTimeZone
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
		tz,
	)
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
