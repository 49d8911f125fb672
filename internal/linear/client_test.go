package linear

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedRequest struct {
	auth      string
	query     string
	variables map[string]any
}

// newGraphQLServer returns a test server that records the last request
// and replies with the given body.
func newGraphQLServer(t *testing.T, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")

		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		captured.query = body.Query
		captured.variables = body.Variables

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, captured
}

func TestWorkflowStates(t *testing.T) {
	reply := `{"data":{"workflowStates":{"nodes":[
		{"id":"s1","name":"Todo","type":"unstarted"},
		{"id":"s2","name":"Done","type":"completed"}]}}}`
	server, captured := newGraphQLServer(t, reply)

	client := NewClient(server.URL, "lin_api_secret", 0, zap.NewNop())
	states, err := client.WorkflowStates(context.Background())
	require.NoError(t, err)

	assert.Len(t, states, 2)
	assert.Equal(t, "Done", states[1].Name)
	assert.Equal(t, "lin_api_secret", captured.auth,
		"personal API keys go in the Authorization header verbatim")
	assert.Contains(t, captured.query, "workflowStates")
}

func TestOAuthTokenUsesBearerScheme(t *testing.T) {
	reply := `{"data":{"workflowStates":{"nodes":[]}}}`
	server, captured := newGraphQLServer(t, reply)

	client := NewClient(server.URL, "lin_oauth_abc", 0, zap.NewNop())
	_, err := client.WorkflowStates(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(captured.auth, "Bearer "), "got %q", captured.auth)
}

func TestSearchIssuesParsesState(t *testing.T) {
	reply := `{"data":{"issues":{"nodes":[
		{"id":"i1","identifier":"ENG-7","number":7,"title":"fix it",
		 "state":{"id":"s1","name":"Todo"}}]}}}`
	server, captured := newGraphQLServer(t, reply)

	client := NewClient(server.URL, "lin_api_secret", 100, zap.NewNop())
	issues, err := client.SearchIssues(context.Background(), []int{7})
	require.NoError(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, "ENG-7", issues[0].Identifier)
	assert.Equal(t, "Todo", issues[0].State.Name)
	assert.Equal(t, float64(100), captured.variables["first"])
}

func TestGraphQLErrorsAreSurfaced(t *testing.T) {
	reply := `{"errors":[{"message":"rate limited"},{"message":"try later"}]}`
	server, _ := newGraphQLServer(t, reply)

	client := NewClient(server.URL, "lin_api_secret", 0, zap.NewNop())
	_, err := client.Projects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited; try later")
}

func TestUpdateIssueStateRejection(t *testing.T) {
	reply := `{"data":{"issueUpdate":{"success":false}}}`
	server, _ := newGraphQLServer(t, reply)

	client := NewClient(server.URL, "lin_api_secret", 0, zap.NewNop())
	err := client.UpdateIssueState(context.Background(), "i1", "s2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestUpdateProjectState(t *testing.T) {
	reply := `{"data":{"projectUpdate":{"success":true}}}`
	server, captured := newGraphQLServer(t, reply)

	client := NewClient(server.URL, "lin_api_secret", 0, zap.NewNop())
	err := client.UpdateProjectState(context.Background(), "p1", "completed")
	require.NoError(t, err)

	assert.Equal(t, "p1", captured.variables["id"])
	assert.Equal(t, "completed", captured.variables["state"])
}

func TestNon200StatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "lin_api_secret", 0, zap.NewNop())
	_, err := client.WorkflowStates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestProjectIssues(t *testing.T) {
	reply := `{"data":{"project":{"issues":{"nodes":[
		{"id":"i1","identifier":"ENG-1","number":1,"title":"a","state":{"id":"s1","name":"Todo"}},
		{"id":"i2","identifier":"ENG-2","number":2,"title":"b","state":{"id":"s2","name":"Done"}}]}}}}`
	server, captured := newGraphQLServer(t, reply)

	client := NewClient(server.URL, "lin_api_secret", 0, zap.NewNop())
	issues, err := client.ProjectIssues(context.Background(), "p1")
	require.NoError(t, err)

	assert.Len(t, issues, 2)
	assert.Equal(t, "p1", captured.variables["id"])
}
