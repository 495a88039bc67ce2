// icl-mcp exposes the engine over the Model Context Protocol so editors
// and dashboards can query iteration status, dry-run the Scheduler, or
// start/resume a run without shelling out to the icl CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dpopsuev/icl/internal/config"
	"github.com/dpopsuev/icl/internal/iclmcp"
	"github.com/dpopsuev/icl/internal/logging"
)

func main() {
	logging.Init(logging.ParseLevel(config.LogLevel()), "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	iclmcp.WatchParent(ctx, stop)

	srv := iclmcp.NewServer()
	if err := srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
