package iclmcp

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// WatchParent monitors for parent process death in a background
// goroutine and cancels cancelFn if it happens — prevents zombie MCP
// server processes from accumulating once the editor that spawned this
// one exits or restarts, grounded on the teacher's internal/mcp.WatchStdin.
//
// This must never read from stdin: the MCP SDK's StdioTransport owns it
// exclusively, and stealing bytes here would corrupt the JSON-RPC stream.
func WatchParent(ctx context.Context, cancel context.CancelFunc) {
	ppid := os.Getppid()
	log := slog.Default().With(slog.String("component", "iclmcp"))
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					log.Warn("parent process died, shutting down", "wasPid", ppid)
					cancel()
					return
				}
			}
		}
	}()
}
