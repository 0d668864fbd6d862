package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	xerrors "AIrchitect-CLI/internal/errors"
	"AIrchitect-CLI/pkg/plugin"
)

// SearchLimit 限制一次搜索返回的键数量。
const SearchLimit = 100

// InMemoryStore 是进程内的项目记忆实现，进程退出后数据丢失。
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ plugin.Memory = (*InMemoryStore)(nil)

// NewInMemoryStore 创建空的进程内存储。
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]byte)}
}

// Store 保存值的 JSON 快照，之后对原值的修改不会影响已保存内容。
func (s *InMemoryStore) Store(_ context.Context, key string, value any) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, xerrors.New(xerrors.CodeInvalidArgument, "记忆键不能为空")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "记忆内容无法序列化")
	}
	s.mu.Lock()
	s.entries[key] = encoded
	s.mu.Unlock()
	return true, nil
}

// Retrieve 读取一个键，不存在时返回 ok=false。
func (s *InMemoryStore) Retrieve(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	raw, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析记忆失败")
	}
	return value, true, nil
}

// Search 返回键名或内容包含查询串（不区分大小写）的键，按字典序排列。
func (s *InMemoryStore) Search(_ context.Context, query string) ([]string, error) {
	needle := strings.ToLower(query)
	s.mu.RLock()
	keys := []string{}
	for key, raw := range s.entries {
		if strings.Contains(strings.ToLower(key), needle) || strings.Contains(strings.ToLower(string(raw)), needle) {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	if len(keys) > SearchLimit {
		keys = keys[:SearchLimit]
	}
	return keys, nil
}

// Len 返回当前保存的键数量。
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close 满足 Backend 接口，进程内存储无需释放资源。
func (s *InMemoryStore) Close() error { return nil }
