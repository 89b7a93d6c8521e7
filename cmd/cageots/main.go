package main

import (
	"cageots-konnector/cmd/cageots/commands"
	"cageots-konnector/lib/serviceutil"
	"cageots-konnector/lib/telemetry"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "cageots-konnector")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}

	err = commands.ExecuteContext(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*5)
	shutdownErr := tel.Shutdown(shutdownCtx)
	shutdownCancel()
	cancel()
	if shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
