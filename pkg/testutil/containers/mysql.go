//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"

	"matchmaking/config"
	dbPkg "matchmaking/pkg/db"

	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/gorm"
)

// MySQLContainer 集成测试使用的 MySQL 实例
// 连接经由 db.InitDB 建立，与线上使用同一DSN与GORM配置
type MySQLContainer struct {
	Container testcontainers.Container
	Config    config.DatabaseConfig
	DB        *gorm.DB
}

// NewMySQLContainer 启动 MySQL 容器并迁移给定模型
func NewMySQLContainer(t *testing.T, models ...interface{}) *MySQLContainer {
	t.Helper()

	ctx := context.Background()
	const (
		database = "matchmaking"
		username = "matchmaking"
		password = "matchmaking"
	)

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase(database),
		tcmysql.WithUsername(username),
		tcmysql.WithPassword(password),
	)
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get mysql host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get mysql port: %v", err)
	}

	cfg := config.DatabaseConfig{
		Driver:   "mysql",
		Host:     host,
		Port:     port.Int(),
		Username: username,
		Password: password,
		Database: database,
		Charset:  "utf8mb4",
		MaxIdle:  10,
		MaxOpen:  50,
	}
	db, err := dbPkg.InitDB(cfg)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect mysql: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to migrate: %v", err)
	}

	return &MySQLContainer{
		Container: container,
		Config:    cfg,
		DB:        db,
	}
}

// TruncateTables 清空给定的表，用于测试之间隔离
func (m *MySQLContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if err := m.DB.WithContext(ctx).Exec(fmt.Sprintf("TRUNCATE TABLE `%s`", table)).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// Terminate 关闭连接并停止容器
func (m *MySQLContainer) Terminate(ctx context.Context) error {
	if sqlDB, err := m.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return m.Container.Terminate(ctx)
}
