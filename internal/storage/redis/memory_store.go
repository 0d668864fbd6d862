package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	xerrors "AIrchitect-CLI/internal/errors"
	"AIrchitect-CLI/pkg/plugin"
)

// SearchLimit 限制一次搜索返回的键数量。
const SearchLimit = 100

// DefaultPrefix 是未配置前缀时使用的键前缀。
const DefaultPrefix = "airchitect:memory:"

// Config 描述 Redis 连接参数。
type Config struct {
	Address  string
	Username string
	Password string
	DB       int
	Prefix   string
}

// MemoryStore 将项目记忆保存到 Redis 字符串键中。
type MemoryStore struct {
	client redis.UniversalClient
	prefix string
}

var _ plugin.Memory = (*MemoryStore)(nil)

// NewMemoryStore 建立连接并检查可用性。
func NewMemoryStore(ctx context.Context, cfg Config) (*MemoryStore, error) {
	if cfg.Address == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 Redis 失败")
	}
	return NewMemoryStoreWithClient(client, cfg.Prefix), nil
}

// NewMemoryStoreWithClient 复用已有客户端。
func NewMemoryStoreWithClient(client redis.UniversalClient, prefix string) *MemoryStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &MemoryStore{client: client, prefix: prefix}
}

// Store 写入或覆盖一个键。
func (s *MemoryStore) Store(ctx context.Context, key string, value any) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, xerrors.New(xerrors.CodeInvalidArgument, "记忆键不能为空")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "记忆内容无法序列化")
	}
	if err := s.client.Set(ctx, s.prefix+key, encoded, 0).Err(); err != nil {
		return false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入 Redis 失败")
	}
	return true, nil
}

// Retrieve 读取一个键，不存在时返回 ok=false。
func (s *MemoryStore) Retrieve(ctx context.Context, key string) (any, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取 Redis 失败")
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析 Redis 记忆失败")
	}
	return value, true, nil
}

// Search 通过 SCAN 遍历前缀下的键，返回键名或内容包含查询串（不区分大小写）的键。
func (s *MemoryStore) Search(ctx context.Context, query string) ([]string, error) {
	needle := strings.ToLower(query)
	keys := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", SearchLimit).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		key := strings.TrimPrefix(full, s.prefix)
		if strings.Contains(strings.ToLower(key), needle) {
			keys = append(keys, key)
			continue
		}
		raw, err := s.client.Get(ctx, full).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("读取键 %s 失败", key))
		}
		if strings.Contains(strings.ToLower(raw), needle) {
			keys = append(keys, key)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "扫描 Redis 失败")
	}
	sort.Strings(keys)
	if len(keys) > SearchLimit {
		keys = keys[:SearchLimit]
	}
	return keys, nil
}

// Close 关闭底层客户端。
func (s *MemoryStore) Close() error {
	return s.client.Close()
}
