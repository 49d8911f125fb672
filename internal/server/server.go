// Package server wires the sync engine into an MCP server instance. No
// business logic lives here, only registration.
package server

import (
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/clintrovert/linsync/internal/syncer"
	"github.com/clintrovert/linsync/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all Linear sync tools registered.
func New(api syncer.API, pacing time.Duration, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"linsync",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	run := tools.NewRunner(api, pacing, logger)

	syncTool := tools.NewSyncTool(run)
	s.AddTool(syncTool.Definition(), syncTool.Handle)

	verifyTool := tools.NewVerifyTool(run)
	s.AddTool(verifyTool.Definition(), verifyTool.Handle)

	projectTool := tools.NewProjectTool(run)
	s.AddTool(projectTool.Definition(), projectTool.Handle)

	listTool := tools.NewListTool(run)
	s.AddTool(listTool.Definition(), listTool.Handle)

	return s
}

func serverInstructions() string {
	return `You have access to linsync, a bulk updater for Linear issues and projects.

- linear_sync_issues: transition a batch of issues to a workflow state.
  Give identifiers exactly as displayed (e.g. ENG-101). State names are
  matched case-insensitively against the full state list; an unknown
  state aborts the batch before any update.
- linear_verify_issues: after a sync, confirm every issue landed in the
  expected state. Always verify mutations you were asked to guarantee.
- linear_update_project: set a project status. Prefer project_id when you
  have it; name fragments resolve to the first match and may be ambiguous.
- linear_list_project: inspect a project's issues before deciding what to
  sync.

Updates are applied one at a time with a fixed delay, so large batches
take roughly 100ms per issue. Re-running a sync is safe: re-applying an
already-matching state is a no-op.`
}
