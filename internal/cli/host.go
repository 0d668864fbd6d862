package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"AIrchitect-CLI/internal/config"
	"AIrchitect-CLI/internal/events"
	"AIrchitect-CLI/internal/llm"
	"AIrchitect-CLI/internal/memory"
	"AIrchitect-CLI/internal/observability/metrics"
	"AIrchitect-CLI/internal/plugins"
	"AIrchitect-CLI/pkg/logger"
	"AIrchitect-CLI/pkg/plugin"
)

// Host 持有一次命令执行期间装配好的全部运行时组件。
type Host struct {
	Config  *config.Config
	Manager *plugin.Manager
	Metrics *metrics.Collector
	Events  events.Stream

	memory memory.Backend
	log    *slog.Logger
}

// NewHost 依次初始化日志、模型提供方、项目记忆、事件流与插件管理器，
// 并加载、初始化全部内置插件。单个插件初始化失败只记录日志。
func NewHost(ctx context.Context, cfg *config.Config) (*Host, error) {
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	h := &Host{Config: cfg, Metrics: metrics.Default(), log: logger.Named("host")}

	caps, err := llm.Build(cfg.AI)
	if err != nil {
		return nil, err
	}

	h.memory, err = memory.Open(ctx, cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("打开项目记忆失败: %w", err)
	}
	if h.memory != nil {
		caps.Memory = h.memory
	}

	h.Events, err = events.Open(ctx, cfg.Events)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("打开事件流失败: %w", err)
	}

	var manifest plugin.ManagerConfig
	if cfg.Plugins.Manifest != "" {
		manifest, err = plugin.LoadManagerConfig(cfg.Plugins.Manifest)
		if err != nil {
			h.Close()
			return nil, err
		}
	}

	dispatch := []plugin.DispatchOption{
		plugin.WithTimeout(cfg.Dispatch.Timeout()),
		plugin.WithObserver(h.Metrics),
	}
	if h.Events != nil {
		dispatch = append(dispatch, plugin.WithObserver(events.NewObserver(h.Events, 0)))
	}

	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		h.Close()
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	h.Manager, err = plugin.NewManager(cfg.Runtime.DataDir,
		plugin.WithManifest(manifest),
		plugin.WithHostCapabilities(caps),
		plugin.WithFileSizeLimit(cfg.Runtime.MaxFileSize),
		plugin.WithDispatchOptions(dispatch...),
	)
	if err != nil {
		h.Close()
		return nil, err
	}

	loaded, err := plugins.LoadAll(h.Manager)
	if err != nil {
		h.Close()
		return nil, err
	}
	if err := h.Manager.Start(ctx); err != nil {
		h.log.Warn("部分插件初始化失败", slog.Any("error", err))
	}
	h.log.Debug("插件宿主已就绪", slog.Any("plugins", loaded), slog.String("data_dir", cfg.Runtime.DataDir))
	return h, nil
}

// Close 清理插件并释放外部连接。
func (h *Host) Close() error {
	var errs []error
	if h.Manager != nil {
		h.Manager.Shutdown()
	}
	if h.Events != nil {
		errs = append(errs, h.Events.Close())
	}
	if h.memory != nil {
		errs = append(errs, h.memory.Close())
	}
	_ = logger.Sync()
	return errors.Join(errs...)
}
