package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"AIrchitect-CLI/pkg/plugin"
)

func (a *app) pluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect loaded plugins",
	}
	cmd.AddCommand(a.pluginsListCommand(), a.pluginsInfoCommand())
	return cmd
}

func (a *app) pluginsListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plugins and their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.openHost(cmd)
			if err != nil {
				return err
			}
			defer host.Close()

			infos, err := describeAll(cmd, host.Manager)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVERSION\tSTATE\tCOMMANDS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.Version, info.State, strings.Join(info.Commands, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 格式输出")
	return cmd
}

func (a *app) pluginsInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <plugin>",
		Short: "Show details of a single plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := a.openHost(cmd)
			if err != nil {
				return err
			}
			defer host.Close()

			inst, ok := host.Manager.Registry().Lookup(args[0])
			if !ok {
				return plugin.PluginNotFound(args[0])
			}
			info, err := inst.Info(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
	return cmd
}

func describeAll(cmd *cobra.Command, m *plugin.Manager) ([]plugin.Info, error) {
	registry := m.Registry()
	infos := make([]plugin.Info, 0, registry.Len())
	for _, name := range registry.List() {
		inst, ok := registry.Lookup(name)
		if !ok {
			continue
		}
		info, err := inst.Info(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("读取插件 %s 信息失败: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
