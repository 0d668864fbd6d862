package memory

import (
	"context"
	"fmt"
	"io"
	"time"

	"AIrchitect-CLI/internal/config"
	"AIrchitect-CLI/internal/storage/mysql"
	"AIrchitect-CLI/internal/storage/redis"
	"AIrchitect-CLI/pkg/plugin"
)

// Backend 是可关闭的项目记忆实现。
type Backend interface {
	plugin.Memory
	io.Closer
}

// Open 按 driver 创建记忆后端；driver 为 "none" 时返回 nil，插件将看到记忆能力不可用。
func Open(ctx context.Context, cfg config.MemoryConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewInMemoryStore(), nil
	case "none":
		return nil, nil
	case "redis":
		store, err := redis.NewMemoryStore(ctx, redis.Config{
			Address:  cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "mysql":
		repo, err := mysql.NewMemoryRepository(ctx, mysql.Config{
			DSN:             cfg.MySQL.DSN,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.MySQL.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("未知的记忆存储驱动 %q", cfg.Driver)
	}
}
