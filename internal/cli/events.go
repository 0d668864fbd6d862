package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"AIrchitect-CLI/internal/events"
)

func (a *app) eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with the invocation event stream",
	}
	cmd.AddCommand(a.eventsTailCommand())
	return cmd
}

func (a *app) eventsTailCommand() *cobra.Command {
	var (
		asJSON  bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print invocation events as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host, err := a.openHost(cmd)
			if err != nil {
				return err
			}
			defer host.Close()

			if host.Events == nil {
				return errors.New("事件流未启用，请在配置中设置 events.driver")
			}
			out := cmd.OutOrStdout()
			err = host.Events.Consume(cmd.Context(), workers, func(_ context.Context, ev events.Event) error {
				if asJSON {
					return writeJSON(out, ev)
				}
				_, err := fmt.Fprintln(out, ev.String())
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 格式输出事件")
	cmd.Flags().IntVar(&workers, "workers", 1, "并发消费的协程数")
	return cmd
}
