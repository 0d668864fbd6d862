package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) invokeCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "invoke <plugin> <command> [args...]",
		Short: "Invoke a plugin command",
		Long: `调用已加载插件的命令，并打印结果。

示例:
  airchitect invoke example hello
  airchitect invoke example calculate 7 3
  airchitect invoke notes add todo "ship it"
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := a.openHost(cmd)
			if err != nil {
				return err
			}
			defer host.Close()

			res := host.Manager.Invoke(cmd.Context(), args[0], args[1], args[2:])
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				return res.Error()
			}
			if res.Err != nil {
				return res.Error()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Value.String())
			return err
		},
	}
	// 插件参数可能以 "-" 开头，第一个位置参数之后不再解析标志。
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 格式输出结果")
	return cmd
}
