// Package example 是演示插件：问候、特性列表、四则运算与 AI 查询，
// 覆盖插件上下文的配置、数据文件、项目记忆与模型能力。
package example

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"AIrchitect-CLI/pkg/logger"
	"AIrchitect-CLI/pkg/plugin"
)

// 插件元数据。
const (
	Name        = "example"
	Version     = "1.0.0"
	Description = "Example plugin demonstrating AIrchitect CLI plugin system"
)

const (
	greeting   = "Hello from the example plugin!"
	sampleFile = "sample.txt"
	sampleText = "This is a sample data file created by the example plugin."
)

var features = []string{
	"Multi-language architecture",
	"Plugin system with Go extensions",
	"AI integration with multiple providers",
	"Rich terminal user interface",
	"Intelligent agent framework",
}

// Plugin 实现 plugin.Plugin 及全部可选生命周期接口。
type Plugin struct {
	ctx    *plugin.Context
	router *plugin.Router
	log    *slog.Logger
	now    func() time.Time
}

var (
	_ plugin.Plugin              = (*Plugin)(nil)
	_ plugin.Initializer         = (*Plugin)(nil)
	_ plugin.Cleaner             = (*Plugin)(nil)
	_ plugin.InfoProvider        = (*Plugin)(nil)
	_ plugin.CapabilityRequester = (*Plugin)(nil)
)

// New 是插件工厂。
func New(pctx *plugin.Context) (plugin.Plugin, error) {
	p := &Plugin{ctx: pctx, log: logger.Named("plugin.example"), now: time.Now}
	p.router = plugin.NewRouter(Name).
		Handle("hello", "hello [name...]", p.hello).
		Handle("features", "features", p.features).
		Handle("calculate", "calculate <a> <b>", p.calculate).
		Handle("ai-query", "ai-query <query...>", p.aiQuery)
	return p, nil
}

func (p *Plugin) Name() string        { return Name }
func (p *Plugin) Version() string     { return Version }
func (p *Plugin) Description() string { return Description }
func (p *Plugin) Commands() []string  { return p.router.Commands() }

// Capabilities 声明插件会用到的宿主能力。
func (p *Plugin) Capabilities() []plugin.Capability {
	return []plugin.Capability{plugin.CapabilityAI, plugin.CapabilityMemory}
}

// Execute 将命令交给路由表。
func (p *Plugin) Execute(ctx context.Context, command string, args []string) (plugin.Value, error) {
	p.log.Debug("执行命令", slog.String("command", command), slog.Int("arg_count", len(args)))
	return p.router.Execute(ctx, command, args)
}

// Initialize 记录初始化状态并写入示例数据文件，重复调用会重写该文件。
func (p *Plugin) Initialize(context.Context) (bool, error) {
	p.ctx.SetConfig("initialized", true)
	p.ctx.SetConfig("init_time", float64(p.now().Unix()))
	if err := p.ctx.EnsureDataDir(); err != nil {
		return false, err
	}
	if err := p.ctx.WriteDataString(sampleFile, sampleText); err != nil {
		return false, err
	}
	p.log.Info("插件初始化完成", slog.String("version", Version))
	return true, nil
}

// Cleanup 不持有外部资源，只记录日志。
func (p *Plugin) Cleanup() {
	p.log.Info("插件已清理")
}

// Info 补充初始化状态与数据文件列表。
func (p *Plugin) Info() map[string]plugin.Value {
	initialized, _ := p.ctx.GetConfig("initialized", false).(bool)
	files, err := p.ctx.ListDataFiles()
	if err != nil {
		files = nil
	}
	return map[string]plugin.Value{
		"initialized": plugin.Bool(initialized),
		"data_files":  plugin.Strings(files),
	}
}

func (p *Plugin) hello(_ context.Context, args []string) (plugin.Value, error) {
	if len(args) == 0 {
		return plugin.String(greeting), nil
	}
	return plugin.String(fmt.Sprintf("Hello, %s! %s", strings.Join(args, " "), greeting)), nil
}

func (p *Plugin) features(context.Context, []string) (plugin.Value, error) {
	var b strings.Builder
	b.WriteString("AIrchitect CLI Features:")
	for _, f := range features {
		b.WriteString("\n  - ")
		b.WriteString(f)
	}
	return plugin.String(b.String()), nil
}

func (p *Plugin) calculate(ctx context.Context, args []string) (plugin.Value, error) {
	const usage = "calculate <a> <b>"
	if err := plugin.ExactArgs(args, 2, usage); err != nil {
		return plugin.Value{}, err
	}
	a, err := plugin.ParseNumber(args[0], usage)
	if err != nil {
		return plugin.Value{}, err
	}
	b, err := plugin.ParseNumber(args[1], usage)
	if err != nil {
		return plugin.Value{}, err
	}

	quotient, modulo := plugin.String("undefined"), plugin.String("undefined")
	if b != 0 {
		quotient = plugin.Number(a / b)
		modulo = plugin.Number(flooredMod(a, b))
	}
	result := plugin.Map(map[string]plugin.Value{
		"operation": plugin.String("calculation"),
		"operands":  plugin.List(plugin.Number(a), plugin.Number(b)),
		"results": plugin.Map(map[string]plugin.Value{
			"sum":        plugin.Number(a + b),
			"difference": plugin.Number(a - b),
			"product":    plugin.Number(a * b),
			"quotient":   quotient,
			"power":      plugin.Number(math.Pow(a, b)),
			"modulo":     modulo,
		}),
	})

	p.remember(ctx, fmt.Sprintf("calculation:%s:%s", formatOperand(a), formatOperand(b)), result)
	return result, nil
}

// remember 把结果写入项目记忆；记忆不可用或写入失败不影响命令结果。
func (p *Plugin) remember(ctx context.Context, key string, value plugin.Value) {
	mem, err := p.ctx.ProjectMemory()
	if err != nil {
		p.log.Debug("项目记忆不可用", slog.Any("error", err))
		return
	}
	if _, err := mem.Store(ctx, key, value); err != nil {
		p.log.Warn("写入项目记忆失败", slog.String("key", key), slog.Any("error", err))
	}
}

func (p *Plugin) aiQuery(ctx context.Context, args []string) (plugin.Value, error) {
	if err := plugin.MinArgs(args, 1, "ai-query <query...>"); err != nil {
		return plugin.Value{}, err
	}
	provider, err := p.ctx.AIProvider("")
	if err != nil {
		return plugin.Value{}, err
	}
	prompt := "As an example plugin for AIrchitect CLI, please answer this query: " + strings.Join(args, " ")
	reply, err := provider.Send(ctx, prompt, plugin.SendOptions{Temperature: 0.7, MaxTokens: 200})
	if err != nil {
		return plugin.Value{}, plugin.ExecutionFailure(err, "ai provider %s failed", provider.Name())
	}
	return plugin.String("AI Response:\n" + reply), nil
}

// flooredMod 的结果与除数同号。
func flooredMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func formatOperand(f float64) string {
	return plugin.Number(f).String()
}
