package pythonbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	xerrors "AIrchitect-CLI/internal/errors"
	"AIrchitect-CLI/pkg/plugin"
)

// Client 通过调用外部 Python 脚本完成推理。脚本从 stdin 读取一个 JSON
// 请求，并向 stdout 写出一个 JSON 响应。
type Client struct {
	name       string
	pythonExec string
	scriptPath string
	workingDir string
	models     []string
}

var _ plugin.AIProvider = (*Client)(nil)

// Config 描述脚本位置与可选的静态模型列表。
type Config struct {
	Name       string
	PythonExec string
	ScriptPath string
	WorkingDir string
	Models     []string
}

// NewClient 创建 Python Bridge 客户端。
func NewClient(cfg Config) (*Client, error) {
	if cfg.ScriptPath == "" {
		return nil, fmt.Errorf("未指定 Python 脚本路径")
	}
	if cfg.PythonExec == "" {
		cfg.PythonExec = "python3"
	}
	if cfg.Name == "" {
		cfg.Name = "python_bridge"
	}
	return &Client{
		name:       cfg.Name,
		pythonExec: cfg.PythonExec,
		scriptPath: ResolveScriptPath(cfg.WorkingDir, cfg.ScriptPath),
		workingDir: cfg.WorkingDir,
		models:     append([]string(nil), cfg.Models...),
	}, nil
}

// Name 返回提供方名称。
func (c *Client) Name() string { return c.name }

// Send 将提示词交给脚本处理。
func (c *Client) Send(ctx context.Context, prompt string, opts plugin.SendOptions) (string, error) {
	var resp struct {
		Reply string `json:"reply"`
	}
	err := c.call(ctx, map[string]any{
		"action":      "send",
		"prompt":      prompt,
		"model":       opts.Model,
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
		"timestamp":   time.Now().Unix(),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// ListModels 优先返回静态配置，否则询问脚本。
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if len(c.models) > 0 {
		return append([]string(nil), c.models...), nil
	}
	var resp struct {
		Models []string `json:"models"`
	}
	if err := c.call(ctx, map[string]any{"action": "list_models"}, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func (c *Client) call(ctx context.Context, payload map[string]any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	command := exec.CommandContext(ctx, c.pythonExec, c.scriptPath)
	if c.workingDir != "" {
		command.Dir = c.workingDir
	}
	command.Stdin = bytes.NewReader(encoded)

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return xerrors.Wrap(xerrors.CodeProviderFailure, err,
			fmt.Sprintf("执行 Python 脚本失败, stderr=%s", strings.TrimSpace(stderr.String())))
	}
	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return xerrors.Wrap(xerrors.CodeProviderFailure, err, "解析 Python 输出失败")
	}
	return nil
}

// ResolveScriptPath 根据工作目录推导脚本绝对路径。
func ResolveScriptPath(baseDir, script string) string {
	if script == "" {
		return ""
	}
	if filepath.IsAbs(script) {
		return script
	}
	if baseDir == "" {
		return script
	}
	return filepath.Join(baseDir, script)
}
