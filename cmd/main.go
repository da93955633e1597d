package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/pulse-backend/internal/app"
	"github.com/yungbote/pulse-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	code := 0
	if err := a.Run(ctx); err != nil {
		a.Log.Error("server exited", "error", err)
		code = 1
	}
	a.Close()
	os.Exit(code)
}
