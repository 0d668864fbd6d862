package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"AIrchitect-CLI/pkg/logger"
)

// EnvConfigPath 指定配置文件路径的环境变量。
const EnvConfigPath = "AIRCHITECT_CONFIG"

// DefaultConfigPath 是未设置环境变量时使用的配置文件。
const DefaultConfigPath = "configs/airchitect.json"

// Config 描述了插件宿主启动时需要加载的全部配置。
type Config struct {
	Server   ServerConfig   `json:"server"`
	Runtime  RuntimeConfig  `json:"runtime"`
	Dispatch DispatchConfig `json:"dispatch"`
	Log      logger.Config  `json:"log"`
	AI       AIConfig       `json:"ai"`
	Memory   MemoryConfig   `json:"memory"`
	Events   EventsConfig   `json:"events"`
	Plugins  PluginsConfig  `json:"plugins"`
}

// ServerConfig 控制 HTTP API 的监听地址。
type ServerConfig struct {
	Address string `json:"address"`
}

// RuntimeConfig 放置插件数据目录等运行时参数。
type RuntimeConfig struct {
	DataDir     string `json:"data_dir"`
	MaxFileSize int64  `json:"max_file_size"`
}

// DispatchConfig 控制命令调度行为。
type DispatchConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Timeout 返回单次调用的超时时间，0 表示不限制。
func (d DispatchConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// AIConfig 描述可供插件使用的模型提供方。
type AIConfig struct {
	Default   string           `json:"default"`
	Providers []ProviderConfig `json:"providers"`
}

// ProviderConfig 描述单个模型提供方。
type ProviderConfig struct {
	Name   string   `json:"name"`
	Driver string   `json:"driver"`
	Models []string `json:"models"`

	// openai 驱动使用的字段。
	APIKey         string `json:"api_key"`
	APIKeyEnv      string `json:"api_key_env"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`

	// python_bridge 驱动使用的字段。
	PythonExecutable string `json:"python_executable"`
	ScriptPath       string `json:"script_path"`
	WorkingDir       string `json:"working_dir"`
}

// MemoryConfig 选择项目记忆的存储后端。
type MemoryConfig struct {
	Driver string      `json:"driver"`
	Redis  RedisConfig `json:"redis"`
	MySQL  MySQLConfig `json:"mysql"`
}

// EventsConfig 选择调用事件的发布后端。
type EventsConfig struct {
	Driver   string         `json:"driver"`
	Buffer   int            `json:"buffer"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RedisConfig 描述 Redis 连接。
type RedisConfig struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// MySQLConfig 描述 MySQL 连接。
type MySQLConfig struct {
	DSN             string `json:"dsn"`
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime_seconds"`
}

// RabbitMQConfig 描述 RabbitMQ 连接。
type RabbitMQConfig struct {
	URL      string `json:"url"`
	Queue    string `json:"queue"`
	Prefetch int    `json:"prefetch"`
}

// PluginsConfig 指向插件清单文件。
type PluginsConfig struct {
	Manifest string `json:"manifest"`
}

// ResolvePath 返回应当加载的配置文件路径。
func ResolvePath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return DefaultConfigPath
}

// Load 解析指定路径的 JSON 配置文件。文件不存在时返回默认配置。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	var cfg Config
	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg.applyDefaults("")
		return &cfg, nil
	case err != nil:
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回全部使用默认值的配置。
func Default() *Config {
	var cfg Config
	cfg.applyDefaults("")
	return &cfg
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = defaultDataDir()
	} else if !filepath.IsAbs(c.Runtime.DataDir) && baseDir != "" {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}
	if c.Runtime.MaxFileSize <= 0 {
		c.Runtime.MaxFileSize = 16 << 20
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Audit.Enabled && c.Log.Audit.Path == "" {
		c.Log.Audit.Path = filepath.Join(c.Runtime.DataDir, "logs", "audit.log")
	}

	if len(c.AI.Providers) == 0 {
		c.AI.Providers = []ProviderConfig{{Name: "default", Driver: "echo"}}
	}
	for i := range c.AI.Providers {
		p := &c.AI.Providers[i]
		if p.Driver == "" {
			p.Driver = "echo"
		}
		if p.Name == "" {
			p.Name = p.Driver
		}
		if p.Driver == "python_bridge" {
			if p.PythonExecutable == "" {
				p.PythonExecutable = "python3"
			}
			if p.WorkingDir == "" {
				p.WorkingDir = baseDir
			} else if !filepath.IsAbs(p.WorkingDir) && baseDir != "" {
				p.WorkingDir = filepath.Join(baseDir, p.WorkingDir)
			}
		}
	}
	if c.AI.Default == "" {
		c.AI.Default = c.AI.Providers[0].Name
	}

	if c.Memory.Driver == "" {
		c.Memory.Driver = "memory"
	}
	if c.Memory.Redis.Prefix == "" {
		c.Memory.Redis.Prefix = "airchitect:memory:"
	}

	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}
	if c.Events.Buffer <= 0 {
		c.Events.Buffer = 256
	}
	if c.Events.Redis.Prefix == "" {
		c.Events.Redis.Prefix = "airchitect:events"
	}
	if c.Events.RabbitMQ.Queue == "" {
		c.Events.RabbitMQ.Queue = "airchitect.invocations"
	}

	if c.Plugins.Manifest != "" && !filepath.IsAbs(c.Plugins.Manifest) && baseDir != "" {
		c.Plugins.Manifest = filepath.Join(baseDir, c.Plugins.Manifest)
	}
}

// Validate 检查驱动名称等枚举字段。
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.AI.Providers))
	for _, p := range c.AI.Providers {
		switch p.Driver {
		case "echo", "openai", "python_bridge":
		default:
			return fmt.Errorf("未知的模型驱动 %q", p.Driver)
		}
		if seen[p.Name] {
			return fmt.Errorf("模型提供方 %q 重复", p.Name)
		}
		seen[p.Name] = true
	}
	if !seen[c.AI.Default] {
		return fmt.Errorf("默认模型提供方 %q 未配置", c.AI.Default)
	}
	switch c.Memory.Driver {
	case "none", "memory", "redis", "mysql":
	default:
		return fmt.Errorf("未知的记忆存储驱动 %q", c.Memory.Driver)
	}
	switch c.Events.Driver {
	case "none", "memory", "redis", "rabbitmq":
	default:
		return fmt.Errorf("未知的事件驱动 %q", c.Events.Driver)
	}
	if c.Runtime.MaxFileSize < 1<<20 {
		return fmt.Errorf("max_file_size 不能小于 1MiB")
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "airchitect")
	}
	return filepath.Join(home, ".airchitect")
}
