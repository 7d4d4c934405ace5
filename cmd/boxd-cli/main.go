package main

import (
	"context"

	"boxdharvest/cmd/boxd-cli/commands"
	"boxdharvest/lib/serviceutil"
	"boxdharvest/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "boxd-cli")
	if err == nil {
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	commands.ExecuteContext(ctx)
}
