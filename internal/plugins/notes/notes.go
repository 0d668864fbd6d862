// Package notes 把笔记保存为插件数据目录下的文件，并借助项目记忆提供
// 跨插件的键值记忆与搜索。
package notes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"AIrchitect-CLI/pkg/plugin"
)

// 插件元数据。
const (
	Name        = "notes"
	Version     = "0.3.0"
	Description = "Stores notes as data files and remembers facts in project memory"
)

const (
	noteExt      = ".txt"
	memoryPrefix = "notes:"
)

// Plugin 实现笔记插件。
type Plugin struct {
	ctx    *plugin.Context
	router *plugin.Router
}

// New 是插件工厂。
func New(pctx *plugin.Context) (plugin.Plugin, error) {
	p := &Plugin{ctx: pctx}
	p.router = plugin.NewRouter(Name).
		Handle("add", "add <name> <text...>", p.add).
		Handle("show", "show <name>", p.show).
		Handle("list", "list", p.list).
		Handle("delete", "delete <name>", p.remove).
		Handle("remember", "remember <key> <text...>", p.remember).
		Handle("recall", "recall <key>", p.recall).
		Handle("search", "search <query...>", p.search).
		Handle("fail", "fail", p.fail)
	return p, nil
}

func (p *Plugin) Name() string        { return Name }
func (p *Plugin) Version() string     { return Version }
func (p *Plugin) Description() string { return Description }
func (p *Plugin) Commands() []string  { return p.router.Commands() }

// Capabilities 声明只需要项目记忆。
func (p *Plugin) Capabilities() []plugin.Capability {
	return []plugin.Capability{plugin.CapabilityMemory}
}

func (p *Plugin) Execute(ctx context.Context, command string, args []string) (plugin.Value, error) {
	return p.router.Execute(ctx, command, args)
}

func (p *Plugin) add(_ context.Context, args []string) (plugin.Value, error) {
	if err := plugin.MinArgs(args, 2, "add <name> <text...>"); err != nil {
		return plugin.Value{}, err
	}
	if err := p.ctx.WriteDataString(args[0]+noteExt, strings.Join(args[1:], " ")); err != nil {
		return plugin.Value{}, err
	}
	return plugin.String(fmt.Sprintf("saved note %s", args[0])), nil
}

func (p *Plugin) show(_ context.Context, args []string) (plugin.Value, error) {
	if err := plugin.ExactArgs(args, 1, "show <name>"); err != nil {
		return plugin.Value{}, err
	}
	text, found, err := p.ctx.ReadDataString(args[0] + noteExt)
	if err != nil {
		return plugin.Value{}, err
	}
	if !found {
		return plugin.Value{}, plugin.InvalidArguments("note %q does not exist", args[0])
	}
	return plugin.String(text), nil
}

func (p *Plugin) list(context.Context, []string) (plugin.Value, error) {
	files, err := p.ctx.ListDataFiles()
	if err != nil {
		return plugin.Value{}, err
	}
	names := []string{}
	for _, f := range files {
		if name, ok := strings.CutSuffix(f, noteExt); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return plugin.Strings(names), nil
}

func (p *Plugin) remove(_ context.Context, args []string) (plugin.Value, error) {
	if err := plugin.ExactArgs(args, 1, "delete <name>"); err != nil {
		return plugin.Value{}, err
	}
	if err := p.ctx.DeleteDataFile(args[0] + noteExt); err != nil {
		return plugin.Value{}, err
	}
	return plugin.String(fmt.Sprintf("deleted note %s", args[0])), nil
}

func (p *Plugin) remember(ctx context.Context, args []string) (plugin.Value, error) {
	if err := plugin.MinArgs(args, 2, "remember <key> <text...>"); err != nil {
		return plugin.Value{}, err
	}
	mem, err := p.ctx.ProjectMemory()
	if err != nil {
		return plugin.Value{}, err
	}
	ok, err := mem.Store(ctx, memoryPrefix+args[0], strings.Join(args[1:], " "))
	if err != nil {
		return plugin.Value{}, plugin.ExecutionFailure(err, "remember %s", args[0])
	}
	return plugin.Bool(ok), nil
}

func (p *Plugin) recall(ctx context.Context, args []string) (plugin.Value, error) {
	if err := plugin.ExactArgs(args, 1, "recall <key>"); err != nil {
		return plugin.Value{}, err
	}
	mem, err := p.ctx.ProjectMemory()
	if err != nil {
		return plugin.Value{}, err
	}
	raw, found, err := mem.Retrieve(ctx, memoryPrefix+args[0])
	if err != nil {
		return plugin.Value{}, plugin.ExecutionFailure(err, "recall %s", args[0])
	}
	if !found {
		return plugin.Null(), nil
	}
	return plugin.FromAny(raw)
}

func (p *Plugin) search(ctx context.Context, args []string) (plugin.Value, error) {
	if err := plugin.MinArgs(args, 1, "search <query...>"); err != nil {
		return plugin.Value{}, err
	}
	mem, err := p.ctx.ProjectMemory()
	if err != nil {
		return plugin.Value{}, err
	}
	keys, err := mem.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return plugin.Value{}, plugin.ExecutionFailure(err, "search project memory")
	}
	return plugin.Strings(keys), nil
}

func (p *Plugin) fail(context.Context, []string) (plugin.Value, error) {
	return plugin.Value{}, plugin.ExecutionFailure(nil, "deliberate failure requested")
}
