package llm

import (
	"fmt"
	"os"
	"time"

	"AIrchitect-CLI/internal/config"
	"AIrchitect-CLI/internal/llm/echo"
	"AIrchitect-CLI/internal/llm/openai"
	"AIrchitect-CLI/internal/llm/pythonbridge"
	"AIrchitect-CLI/pkg/plugin"
)

// Build 根据配置创建全部模型提供方，返回可直接注入插件上下文的能力集合。
func Build(cfg config.AIConfig) (plugin.Capabilities, error) {
	providers := make(map[string]plugin.AIProvider, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := buildOne(pc)
		if err != nil {
			return plugin.Capabilities{}, fmt.Errorf("初始化模型提供方 %s 失败: %w", pc.Name, err)
		}
		providers[pc.Name] = p
	}
	if _, ok := providers[cfg.Default]; !ok && cfg.Default != "" {
		return plugin.Capabilities{}, fmt.Errorf("默认模型提供方 %q 未配置", cfg.Default)
	}
	return plugin.Capabilities{Providers: providers, DefaultProvider: cfg.Default}, nil
}

func buildOne(pc config.ProviderConfig) (plugin.AIProvider, error) {
	switch pc.Driver {
	case "", "echo":
		return echo.New(pc.Name, pc.Models), nil
	case "openai":
		key := pc.APIKey
		if key == "" && pc.APIKeyEnv != "" {
			key = os.Getenv(pc.APIKeyEnv)
		}
		return openai.NewClient(openai.Config{
			Name:    pc.Name,
			APIKey:  key,
			BaseURL: pc.BaseURL,
			Model:   pc.Model,
			Timeout: time.Duration(pc.TimeoutSeconds) * time.Second,
		})
	case "python_bridge":
		return pythonbridge.NewClient(pythonbridge.Config{
			Name:       pc.Name,
			PythonExec: pc.PythonExecutable,
			ScriptPath: pc.ScriptPath,
			WorkingDir: pc.WorkingDir,
			Models:     pc.Models,
		})
	default:
		return nil, fmt.Errorf("未知的模型驱动 %q", pc.Driver)
	}
}
