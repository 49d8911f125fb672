// Package tools exposes the sync engine as MCP tools so an AI assistant
// can drive Linear bulk updates through its own tool-routing layer.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/clintrovert/linsync/internal/syncer"
)

// Runner builds a fresh engine per tool call so each call gets its own
// progress buffer. The underlying API client is shared.
type Runner struct {
	api    syncer.API
	pacing time.Duration
	logger *zap.Logger
}

// NewRunner creates a Runner backing all MCP tools.
func NewRunner(api syncer.API, pacing time.Duration, logger *zap.Logger) *Runner {
	return &Runner{api: api, pacing: pacing, logger: logger}
}

func (r *Runner) engine(out io.Writer) *syncer.Engine {
	return syncer.NewEngine(r.api, r.pacing, out, r.logger)
}

// SyncTool handles the linear_sync_issues MCP tool.
type SyncTool struct {
	run *Runner
}

// NewSyncTool creates a SyncTool.
func NewSyncTool(run *Runner) *SyncTool {
	return &SyncTool{run: run}
}

// Definition returns the MCP tool definition for registration.
func (t *SyncTool) Definition() mcp.Tool {
	return mcp.NewTool("linear_sync_issues",
		mcp.WithDescription(
			"Transition a batch of Linear issues to a target workflow state. "+
				"Issues are given as comma-separated display identifiers (e.g. "+
				"'ENG-101,ENG-102'); the state is matched case-insensitively "+
				"against all workflow states. Each issue is updated once, "+
				"sequentially; per-issue failures are reported, not fatal.",
		),
		mcp.WithString("issues",
			mcp.Required(),
			mcp.Description("Comma-separated issue identifiers, e.g. 'ENG-101,ENG-102'."),
		),
		mcp.WithString("state",
			mcp.Required(),
			mcp.Description("Target workflow state name, e.g. 'Done'."),
		),
	)
}

// Handle processes the linear_sync_issues tool call.
func (t *SyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues := req.GetString("issues", "")
	state := req.GetString("state", "")
	if issues == "" || state == "" {
		return mcp.NewToolResultError("'issues' and 'state' are both required"), nil
	}

	var buf bytes.Buffer
	summary, err := t.run.engine(&buf).SyncIssues(ctx, syncer.SplitCSV(issues), state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if summary.Failed > 0 {
		return mcp.NewToolResultError(buf.String()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// VerifyTool handles the linear_verify_issues MCP tool.
type VerifyTool struct {
	run *Runner
}

// NewVerifyTool creates a VerifyTool.
func NewVerifyTool(run *Runner) *VerifyTool {
	return &VerifyTool{run: run}
}

// Definition returns the MCP tool definition for registration.
func (t *VerifyTool) Definition() mcp.Tool {
	return mcp.NewTool("linear_verify_issues",
		mcp.WithDescription(
			"Read-only check that a batch of Linear issues is in the expected "+
				"workflow state. Reports every issue; a single mismatch fails "+
				"the whole verification. Never mutates anything.",
		),
		mcp.WithString("issues",
			mcp.Required(),
			mcp.Description("Comma-separated issue identifiers to check."),
		),
		mcp.WithString("expected_state",
			mcp.Required(),
			mcp.Description("Workflow state name every issue is expected to be in."),
		),
	)
}

// Handle processes the linear_verify_issues tool call.
func (t *VerifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues := req.GetString("issues", "")
	expected := req.GetString("expected_state", "")
	if issues == "" || expected == "" {
		return mcp.NewToolResultError("'issues' and 'expected_state' are both required"), nil
	}

	var buf bytes.Buffer
	report, err := t.run.engine(&buf).Verify(ctx, syncer.SplitCSV(issues), expected)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !report.Passed {
		return mcp.NewToolResultError(buf.String()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// ProjectTool handles the linear_update_project MCP tool.
type ProjectTool struct {
	run *Runner
}

// NewProjectTool creates a ProjectTool.
func NewProjectTool(run *Runner) *ProjectTool {
	return &ProjectTool{run: run}
}

// Definition returns the MCP tool definition for registration.
func (t *ProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("linear_update_project",
		mcp.WithDescription(
			"Set a Linear project's status. The project is located either by "+
				"an exact opaque ID or by a case-insensitive name fragment; "+
				"an ambiguous fragment resolves to the first match.",
		),
		mcp.WithString("project",
			mcp.Description("Project name fragment. Ignored when project_id is given."),
		),
		mcp.WithString("project_id",
			mcp.Description("Exact opaque project ID."),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("Target project status, e.g. 'completed'."),
		),
	)
}

// Handle processes the linear_update_project tool call.
func (t *ProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("project", "")
	projectID := req.GetString("project_id", "")
	status := req.GetString("status", "")
	if status == "" {
		return mcp.NewToolResultError("'status' is required"), nil
	}
	if name == "" && projectID == "" {
		return mcp.NewToolResultError("one of 'project' or 'project_id' is required"), nil
	}

	var buf bytes.Buffer
	if err := t.run.engine(&buf).SyncProject(ctx, name, projectID, status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(buf.String()), nil
}

// ListTool handles the linear_list_project MCP tool.
type ListTool struct {
	run *Runner
}

// NewListTool creates a ListTool.
func NewListTool(run *Runner) *ListTool {
	return &ListTool{run: run}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("linear_list_project",
		mcp.WithDescription(
			"List a Linear project's issues with their current workflow "+
				"states. Read-only.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name fragment to resolve."),
		),
	)
}

// Handle processes the linear_list_project tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("project", "")
	if name == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	var buf bytes.Buffer
	issues, err := t.run.engine(&buf).ListProject(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(issues) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("project matching %q has no issues", name)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
