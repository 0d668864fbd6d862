package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"AIrchitect-CLI/internal/cli"
)

// main 是 airchitect 命令行的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "airchitect: %v\n", err)
		stop()
		os.Exit(1)
	}
}
