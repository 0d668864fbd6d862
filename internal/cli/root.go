package cli

import (
	"github.com/spf13/cobra"

	"AIrchitect-CLI/internal/config"
)

type app struct {
	configPath string
}

// NewRootCommand 构造 airchitect 根命令及全部子命令。
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "airchitect",
		Short:         "AIrchitect plugin host",
		Long:          "AIrchitect 插件宿主：加载内置插件，提供命令调度、项目记忆与模型访问。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.ResolvePath(), "配置文件路径")

	root.AddCommand(
		a.pluginsCommand(),
		a.invokeCommand(),
		a.serveCommand(),
		a.eventsCommand(),
	)
	return root
}

// openHost 加载配置并启动插件宿主，调用方负责 Close。
func (a *app) openHost(cmd *cobra.Command) (*Host, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	return NewHost(cmd.Context(), cfg)
}
