package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/pulse-backend/internal/cli"
	"github.com/yungbote/pulse-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := cli.NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pulsectl: %v\n", err)
		stop()
		os.Exit(1)
	}
}
