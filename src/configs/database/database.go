package database

import (
	"fmt"

	"bunda-ai-server/src/configs"
	"bunda-ai-server/src/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Init 按配置初始化数据库连接并自动迁移表结构
func Init(cfg configs.DBConfig) error {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return fmt.Errorf("不支持的数据库类型: %s", cfg.Dialect)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("数据库连接失败: %v", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.ChatMessage{},
	); err != nil {
		return fmt.Errorf("数据库迁移失败: %v", err)
	}

	db = gdb
	return nil
}

// GetDB 获取全局数据库连接
func GetDB() *gorm.DB {
	return db
}

// SetDB 注入数据库连接（测试使用）
func SetDB(d *gorm.DB) {
	db = d
}
