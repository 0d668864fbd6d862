package echo

import (
	"context"
	"fmt"

	"AIrchitect-CLI/pkg/plugin"
)

// Provider 是不依赖外部服务的本地提供方，回显提示词，便于离线调试插件。
type Provider struct {
	name   string
	models []string
}

var _ plugin.AIProvider = (*Provider)(nil)

// New 创建回显提供方。models 为空时使用 default-model。
func New(name string, models []string) *Provider {
	if len(models) == 0 {
		models = []string{"default-model"}
	}
	return &Provider{name: name, models: append([]string(nil), models...)}
}

// Name 返回提供方名称。
func (p *Provider) Name() string { return p.name }

// Send 返回带有提供方前缀的回显结果。
func (p *Provider) Send(ctx context.Context, prompt string, _ plugin.SendOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("[%s] Response to: %s", p.name, prompt), nil
}

// ListModels 返回配置的模型列表。
func (p *Provider) ListModels(context.Context) ([]string, error) {
	return append([]string(nil), p.models...), nil
}

// DefaultModel 返回第一个模型。
func (p *Provider) DefaultModel() string { return p.models[0] }
