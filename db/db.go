package db

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ezymap/config"
	"ezymap/model"
)

// InitDB 连接 PostgreSQL 并自动迁移表结构
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	// 带重试的数据库连接 (Docker 启动时数据库可能还没准备好)
	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < maxRetries; i++ {
		conn, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			break
		}
		log.WithField("prefix", "db").Warnf("等待数据库就绪... (%d/%d): %v", i+1, maxRetries, err)
		time.Sleep(cfg.RetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	log.WithField("prefix", "db").Info("数据库连接并初始化成功")
	return conn, nil
}

// Migrate 自动迁移模式 (自动创建表结构)
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&model.User{}, &model.SearchRecord{}); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}
