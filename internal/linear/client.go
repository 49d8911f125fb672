package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultEndpoint is the Linear GraphQL endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

const oauthTokenPrefix = "lin_oauth_"

// Client wraps the Linear GraphQL API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	pageSize   int
}

// NewClient creates a new Linear client. Personal API keys are sent as a
// bare Authorization header; OAuth access tokens go through an oauth2
// static-token client, which adds the Bearer scheme.
func NewClient(endpoint, apiKey string, pageSize int, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if pageSize <= 0 {
		pageSize = 250
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if strings.HasPrefix(apiKey, oauthTokenPrefix) {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: apiKey},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
		pageSize:   pageSize,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// do posts a GraphQL document and decodes the data payload into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !strings.HasPrefix(c.apiKey, oauthTokenPrefix) {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call linear api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("linear api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("linear api error: %s", strings.Join(messages, "; "))
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode data payload: %w", err)
		}
	}

	return nil
}

// WorkflowStates fetches all workflow states visible to the credential.
func (c *Client) WorkflowStates(ctx context.Context) ([]WorkflowState, error) {
	query := `query WorkflowStates($first: Int!) {
  workflowStates(first: $first) { nodes { id name type } }
}`

	var data struct {
		WorkflowStates struct {
			Nodes []WorkflowState `json:"nodes"`
		} `json:"workflowStates"`
	}
	if err := c.do(ctx, query, map[string]any{"first": c.pageSizeOrDefault()}, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch workflow states: %w", err)
	}

	return data.WorkflowStates.Nodes, nil
}

// SearchIssues looks up issues whose sequence number is in numbers. The
// lookup is number-based, so callers must still filter on the full
// identifier to rule out cross-team collisions.
func (c *Client) SearchIssues(ctx context.Context, numbers []int) ([]Issue, error) {
	query := `query IssuesByNumber($numbers: [Float!], $first: Int!) {
  issues(filter: { number: { in: $numbers } }, first: $first) {
    nodes { id identifier number title state { id name } }
  }
}`

	var data struct {
		Issues struct {
			Nodes []Issue `json:"nodes"`
		} `json:"issues"`
	}
	vars := map[string]any{"numbers": numbers, "first": c.pageSizeOrDefault()}
	if err := c.do(ctx, query, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	return data.Issues.Nodes, nil
}

// Projects fetches all projects visible to the credential.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	query := `query Projects($first: Int!) {
  projects(first: $first) { nodes { id name state } }
}`

	var data struct {
		Projects struct {
			Nodes []Project `json:"nodes"`
		} `json:"projects"`
	}
	if err := c.do(ctx, query, map[string]any{"first": c.pageSizeOrDefault()}, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	return data.Projects.Nodes, nil
}

// ProjectIssues fetches the issues attached to a project by opaque ID.
func (c *Client) ProjectIssues(ctx context.Context, projectID string) ([]Issue, error) {
	query := `query ProjectIssues($id: String!, $first: Int!) {
  project(id: $id) {
    issues(first: $first) { nodes { id identifier number title state { id name } } }
  }
}`

	var data struct {
		Project struct {
			Issues struct {
				Nodes []Issue `json:"nodes"`
			} `json:"issues"`
		} `json:"project"`
	}
	vars := map[string]any{"id": projectID, "first": c.pageSizeOrDefault()}
	if err := c.do(ctx, query, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch project issues: %w", err)
	}

	return data.Project.Issues.Nodes, nil
}

// UpdateIssueState transitions an issue to the given workflow state.
func (c *Client) UpdateIssueState(ctx context.Context, issueID, stateID string) error {
	query := `mutation UpdateIssueState($id: String!, $stateId: String!) {
  issueUpdate(id: $id, input: { stateId: $stateId }) { success }
}`

	var data struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	vars := map[string]any{"id": issueID, "stateId": stateID}
	if err := c.do(ctx, query, vars, &data); err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	if !data.IssueUpdate.Success {
		return fmt.Errorf("issue update rejected by linear")
	}

	c.logger.Debug("updated issue state",
		zap.String("issue_id", issueID),
		zap.String("state_id", stateID),
	)

	return nil
}

// UpdateProjectState sets a project's status.
func (c *Client) UpdateProjectState(ctx context.Context, projectID, state string) error {
	query := `mutation UpdateProjectState($id: String!, $state: String!) {
  projectUpdate(id: $id, input: { state: $state }) { success }
}`

	var data struct {
		ProjectUpdate struct {
			Success bool `json:"success"`
		} `json:"projectUpdate"`
	}
	vars := map[string]any{"id": projectID, "state": state}
	if err := c.do(ctx, query, vars, &data); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if !data.ProjectUpdate.Success {
		return fmt.Errorf("project update rejected by linear")
	}

	c.logger.Debug("updated project state",
		zap.String("project_id", projectID),
		zap.String("state", state),
	)

	return nil
}

func (c *Client) pageSizeOrDefault() int {
	if c.pageSize > 0 {
		return c.pageSize
	}
	return 250
}
