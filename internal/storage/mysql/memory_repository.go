package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	xerrors "AIrchitect-CLI/internal/errors"
	"AIrchitect-CLI/pkg/plugin"
)

// SearchLimit 限制一次搜索返回的键数量。
const SearchLimit = 100

const (
	upsertMemorySQL = `INSERT INTO project_memory (memory_key, value_json, created_at, updated_at)
    VALUES (?, ?, ?, ?)
    ON DUPLICATE KEY UPDATE value_json = VALUES(value_json), updated_at = VALUES(updated_at)`
	selectMemorySQL = `SELECT value_json FROM project_memory WHERE memory_key = ?`
	searchMemorySQL = `SELECT memory_key FROM project_memory
    WHERE memory_key LIKE ? OR value_json LIKE ?
    ORDER BY memory_key LIMIT ?`
)

// MemoryRepository 以 JSON 文本形式在 project_memory 表中保存插件的项目记忆。
type MemoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ plugin.Memory = (*MemoryRepository)(nil)

// NewMemoryRepository 建立连接池并执行内嵌迁移。
func NewMemoryRepository(ctx context.Context, cfg Config) (*MemoryRepository, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "打开项目记忆数据库失败")
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "执行项目记忆迁移失败")
	}
	return &MemoryRepository{db: db, now: time.Now}, nil
}

// Store 写入或覆盖一个键。
func (r *MemoryRepository) Store(ctx context.Context, key string, value any) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, xerrors.New(xerrors.CodeInvalidArgument, "记忆键不能为空")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "记忆内容无法序列化")
	}
	now := r.now().Unix()
	if _, err := r.db.ExecContext(ctx, upsertMemorySQL, key, string(encoded), now, now); err != nil {
		return false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入项目记忆失败")
	}
	return true, nil
}

// Retrieve 读取一个键，不存在时返回 ok=false。
func (r *MemoryRepository) Retrieve(ctx context.Context, key string) (any, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, selectMemorySQL, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取项目记忆失败")
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析项目记忆失败")
	}
	return value, true, nil
}

// Search 返回键或内容包含查询串的键列表。
func (r *MemoryRepository) Search(ctx context.Context, query string) ([]string, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.db.QueryContext(ctx, searchMemorySQL, pattern, pattern, SearchLimit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "搜索项目记忆失败")
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析搜索结果失败")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历搜索结果失败")
	}
	return keys, nil
}

// Close 释放连接池。
func (r *MemoryRepository) Close() error {
	return r.db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
