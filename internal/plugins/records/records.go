// Package records 暴露插件清单 config.records 中配置的静态 JSON 记录，
// 不依赖任何外部数据源。
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"AIrchitect-CLI/pkg/plugin"
)

// 插件元数据。
const (
	Name        = "records"
	Version     = "1.0.0"
	Description = "Serves JSON records configured in the plugin manifest"
)

// ConfigKey 是清单中记录列表所在的配置键。
const ConfigKey = "records"

// Plugin 在初始化时解析配置，之后只读地提供记录。
type Plugin struct {
	ctx    *plugin.Context
	router *plugin.Router

	mu      sync.RWMutex
	records []map[string]any
}

// New 是插件工厂。
func New(pctx *plugin.Context) (plugin.Plugin, error) {
	p := &Plugin{ctx: pctx}
	p.router = plugin.NewRouter(Name).
		Handle("count", "count", p.count).
		Handle("list", "list", p.list).
		Handle("get", "get <index>", p.get).
		Handle("find", "find <field> <value>", p.find).
		Handle("export", "export <filename>", p.export)
	return p, nil
}

func (p *Plugin) Name() string        { return Name }
func (p *Plugin) Version() string     { return Version }
func (p *Plugin) Description() string { return Description }
func (p *Plugin) Commands() []string  { return p.router.Commands() }

func (p *Plugin) Execute(ctx context.Context, command string, args []string) (plugin.Value, error) {
	return p.router.Execute(ctx, command, args)
}

// Initialize 解析配置中的记录，格式错误时插件进入失败状态。
func (p *Plugin) Initialize(context.Context) (bool, error) {
	records, err := parseRecords(p.ctx.GetConfig(ConfigKey, nil))
	if err != nil {
		return false, err
	}
	p.mu.Lock()
	p.records = records
	p.mu.Unlock()
	return true, nil
}

// Info 报告记录数量。
func (p *Plugin) Info() map[string]plugin.Value {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return map[string]plugin.Value{"record_count": plugin.Int(len(p.records))}
}

// parseRecords 接受对象数组，或元素为 JSON 对象字符串的数组。
func parseRecords(raw any) ([]map[string]any, error) {
	switch value := raw.(type) {
	case nil:
		return []map[string]any{}, nil
	case []map[string]any:
		return value, nil
	case []any:
		items := make([]map[string]any, 0, len(value))
		for i, item := range value {
			switch rec := item.(type) {
			case map[string]any:
				items = append(items, rec)
			case string:
				var parsed map[string]any
				if err := json.Unmarshal([]byte(rec), &parsed); err != nil {
					return nil, plugin.InvalidArguments("record %d is not a JSON object: %v", i, err)
				}
				items = append(items, parsed)
			default:
				return nil, plugin.InvalidArguments("record %d has unsupported type %T", i, item)
			}
		}
		return items, nil
	default:
		return nil, plugin.InvalidArguments("%s must be an array, got %T", ConfigKey, raw)
	}
}

func (p *Plugin) snapshot() []map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.records
}

func (p *Plugin) count(context.Context, []string) (plugin.Value, error) {
	return plugin.Int(len(p.snapshot())), nil
}

func (p *Plugin) list(context.Context, []string) (plugin.Value, error) {
	return toValue(p.snapshot())
}

func (p *Plugin) get(_ context.Context, args []string) (plugin.Value, error) {
	if err := plugin.ExactArgs(args, 1, "get <index>"); err != nil {
		return plugin.Value{}, err
	}
	records := p.snapshot()
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 0 || idx >= len(records) {
		return plugin.Value{}, plugin.InvalidArguments("index %q out of range [0, %d)", args[0], len(records))
	}
	return toValue(records[idx])
}

func (p *Plugin) find(_ context.Context, args []string) (plugin.Value, error) {
	if err := plugin.ExactArgs(args, 2, "find <field> <value>"); err != nil {
		return plugin.Value{}, err
	}
	matches := []map[string]any{}
	for _, rec := range p.snapshot() {
		if v, ok := rec[args[0]]; ok && fmt.Sprint(v) == args[1] {
			matches = append(matches, rec)
		}
	}
	return toValue(matches)
}

func (p *Plugin) export(_ context.Context, args []string) (plugin.Value, error) {
	if err := plugin.ExactArgs(args, 1, "export <filename>"); err != nil {
		return plugin.Value{}, err
	}
	encoded, err := json.MarshalIndent(p.snapshot(), "", "  ")
	if err != nil {
		return plugin.Value{}, plugin.ExecutionFailure(err, "encode records")
	}
	if err := p.ctx.WriteDataFile(args[0], encoded); err != nil {
		return plugin.Value{}, err
	}
	return plugin.Int(len(encoded)), nil
}

func toValue(x any) (plugin.Value, error) {
	v, err := plugin.FromAny(x)
	if err != nil {
		return plugin.Value{}, plugin.ExecutionFailure(err, "convert records")
	}
	return v, nil
}
