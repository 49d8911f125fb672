package syncer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clintrovert/linsync/internal/linear"
)

// DefaultPacing is the fixed delay between successive mutation calls. It
// is a static pacing interval, not adaptive backoff; the remote service's
// own rate limiting is the binding constraint.
const DefaultPacing = 100 * time.Millisecond

// API is the subset of the Linear client the engine depends on.
type API interface {
	WorkflowStates(ctx context.Context) ([]linear.WorkflowState, error)
	SearchIssues(ctx context.Context, numbers []int) ([]linear.Issue, error)
	Projects(ctx context.Context) ([]linear.Project, error)
	ProjectIssues(ctx context.Context, projectID string) ([]linear.Issue, error)
	UpdateIssueState(ctx context.Context, issueID, stateID string) error
	UpdateProjectState(ctx context.Context, projectID, state string) error
}

// SyncResult is the outcome of one mutation attempt.
type SyncResult struct {
	Identifier string `json:"identifier"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Summary aggregates a batch run. Results are in the order the lookup
// returned the issues, which is the order mutations were applied.
type Summary struct {
	Results   []SyncResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	NotFound  []string     `json:"not_found,omitempty"`
	Dropped   []string     `json:"dropped,omitempty"`
}

// VerificationRecord is the outcome of one post-hoc check.
type VerificationRecord struct {
	Identifier string `json:"identifier"`
	Observed   string `json:"observed"`
	Match      bool   `json:"match"`
}

// VerificationReport is the full result of a verification pass. Passed is
// the logical AND across all per-item matches.
type VerificationReport struct {
	Records  []VerificationRecord `json:"records"`
	Expected string               `json:"expected"`
	Passed   bool                 `json:"passed"`
}

// Engine applies workflow states to issues and statuses to projects
// through the Linear API, one mutation at a time with fixed pacing.
// It holds no durable state; every run is independent.
type Engine struct {
	api    API
	logger *zap.Logger
	out    io.Writer
	pacing time.Duration
}

// NewEngine creates a sync engine. Progress lines are written to out.
func NewEngine(api API, pacing time.Duration, out io.Writer, logger *zap.Logger) *Engine {
	if pacing < 0 {
		pacing = DefaultPacing
	}
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		api:    api,
		logger: logger,
		out:    out,
		pacing: pacing,
	}
}

// ResolveState matches a target state name against all workflow states,
// case-insensitively and on full equality. Zero matches is a hard failure.
func (e *Engine) ResolveState(ctx context.Context, name string) (*linear.WorkflowState, error) {
	states, err := e.api.WorkflowStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workflow state: %w", err)
	}

	for i := range states {
		if strings.EqualFold(states[i].Name, name) {
			return &states[i], nil
		}
	}

	return nil, fmt.Errorf("workflow state %q not found", name)
}

// ResolveIssues looks up the given refs and returns the found subset in
// lookup-return order, plus the identifiers that came back empty. Missing
// identifiers are a warning for the caller, not an error.
func (e *Engine) ResolveIssues(ctx context.Context, refs []IssueRef) ([]linear.Issue, []string, error) {
	if len(refs) == 0 {
		return nil, nil, nil
	}

	numbers := make([]int, 0, len(refs))
	wanted := make(map[string]bool, len(refs))
	for _, ref := range refs {
		numbers = append(numbers, ref.Number)
		wanted[strings.ToUpper(ref.Identifier)] = false
	}

	issues, err := e.api.SearchIssues(ctx, numbers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve issues: %w", err)
	}

	// The number filter can match issues from other teams; keep only the
	// identifiers that were actually requested.
	resolved := make([]linear.Issue, 0, len(issues))
	for _, issue := range issues {
		key := strings.ToUpper(issue.Identifier)
		if seen, ok := wanted[key]; ok && !seen {
			wanted[key] = true
			resolved = append(resolved, issue)
		}
	}

	var missing []string
	for _, ref := range refs {
		if !wanted[strings.ToUpper(ref.Identifier)] {
			missing = append(missing, ref.Identifier)
		}
	}

	return resolved, missing, nil
}

// SyncIssues transitions every resolved issue to the named workflow state.
// State resolution failure aborts before any mutation; per-item mutation
// failures are recorded and do not halt the batch. Each resolved issue is
// attempted exactly once.
func (e *Engine) SyncIssues(ctx context.Context, tokens []string, stateName string) (*Summary, error) {
	refs, dropped := ParseIssueRefs(tokens)
	for _, token := range dropped {
		e.logger.Warn("skipping malformed issue identifier", zap.String("token", token))
		fmt.Fprintf(e.out, "warning: skipping malformed identifier %q\n", token)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no valid issue identifiers supplied")
	}

	state, err := e.ResolveState(ctx, stateName)
	if err != nil {
		return nil, err
	}

	issues, missing, err := e.ResolveIssues(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, identifier := range missing {
		e.logger.Warn("issue not found", zap.String("identifier", identifier))
		fmt.Fprintf(e.out, "warning: %s not found\n", identifier)
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("none of the requested issues were found")
	}

	summary := &Summary{NotFound: missing, Dropped: dropped}
	for i, issue := range issues {
		if i > 0 {
			e.pause()
		}

		result := SyncResult{Identifier: issue.Identifier, Success: true}
		if err := e.api.UpdateIssueState(ctx, issue.ID, state.ID); err != nil {
			result.Success = false
			result.Error = err.Error()
			summary.Failed++
			e.logger.Warn("failed to sync issue",
				zap.String("identifier", issue.Identifier),
				zap.Error(err),
			)
			fmt.Fprintf(e.out, "failed %s: %v\n", issue.Identifier, err)
		} else {
			summary.Succeeded++
			fmt.Fprintf(e.out, "synced %s -> %s\n", issue.Identifier, state.Name)
		}
		summary.Results = append(summary.Results, result)
	}

	fmt.Fprintf(e.out, "%d/%d synced\n", summary.Succeeded, len(summary.Results))

	return summary, nil
}

// ResolveProject locates a project by case-insensitive substring match and
// returns the first match in iteration order. An ambiguous fragment gets
// whichever matching project is iterated first; the choice is logged but
// not disambiguated.
func (e *Engine) ResolveProject(ctx context.Context, name string) (*linear.Project, error) {
	projects, err := e.api.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project: %w", err)
	}

	needle := strings.ToLower(name)
	for i := range projects {
		if strings.Contains(strings.ToLower(projects[i].Name), needle) {
			e.logger.Debug("resolved project",
				zap.String("query", name),
				zap.String("project", projects[i].Name),
			)
			return &projects[i], nil
		}
	}

	return nil, fmt.Errorf("project matching %q not found", name)
}

// SyncProject sets a project's status. nameOrID is either an opaque project
// ID (used as-is) or a name fragment to resolve.
func (e *Engine) SyncProject(ctx context.Context, name, projectID, status string) error {
	id := projectID
	display := projectID
	if id == "" {
		project, err := e.ResolveProject(ctx, name)
		if err != nil {
			return err
		}
		id = project.ID
		display = project.Name
	}

	if err := e.api.UpdateProjectState(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update project %s: %w", display, err)
	}

	fmt.Fprintf(e.out, "project %s -> %s\n", display, status)

	return nil
}

// Verify re-queries each identifier and compares its observed state against
// expected, case-insensitively. It is read-only, never short-circuits, and
// always produces the full per-item report; unresolved identifiers count
// as mismatches.
func (e *Engine) Verify(ctx context.Context, tokens []string, expected string) (*VerificationReport, error) {
	refs, dropped := ParseIssueRefs(tokens)
	for _, token := range dropped {
		e.logger.Warn("skipping malformed issue identifier", zap.String("token", token))
		fmt.Fprintf(e.out, "warning: skipping malformed identifier %q\n", token)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no valid issue identifiers supplied")
	}

	issues, missing, err := e.ResolveIssues(ctx, refs)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{Expected: expected, Passed: true}
	for _, issue := range issues {
		record := VerificationRecord{
			Identifier: issue.Identifier,
			Observed:   issue.State.Name,
			Match:      strings.EqualFold(issue.State.Name, expected),
		}
		if !record.Match {
			report.Passed = false
		}
		report.Records = append(report.Records, record)

		mark := "ok"
		if !record.Match {
			mark = "MISMATCH"
		}
		fmt.Fprintf(e.out, "%s: %s (expected %s) %s\n", issue.Identifier, issue.State.Name, expected, mark)
	}

	for _, identifier := range missing {
		report.Passed = false
		report.Records = append(report.Records, VerificationRecord{
			Identifier: identifier,
			Observed:   "(not found)",
		})
		fmt.Fprintf(e.out, "%s: not found (expected %s) MISMATCH\n", identifier, expected)
	}

	if report.Passed {
		fmt.Fprintf(e.out, "verification passed (%d issues)\n", len(report.Records))
	} else {
		fmt.Fprintf(e.out, "verification failed\n")
	}

	return report, nil
}

// ListProject prints a project's issues with their current states.
func (e *Engine) ListProject(ctx context.Context, name string) ([]linear.Issue, error) {
	project, err := e.ResolveProject(ctx, name)
	if err != nil {
		return nil, err
	}

	issues, err := e.api.ProjectIssues(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project %s: %w", project.Name, err)
	}

	fmt.Fprintf(e.out, "project %s (%d issues)\n", project.Name, len(issues))
	for _, issue := range issues {
		fmt.Fprintf(e.out, "  %s  %-12s  %s\n", issue.Identifier, issue.State.Name, issue.Title)
	}

	return issues, nil
}

func (e *Engine) pause() {
	if e.pacing > 0 {
		time.Sleep(e.pacing)
	}
}
