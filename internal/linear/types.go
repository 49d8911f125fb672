package linear

// WorkflowState is a named stage an issue can occupy. The ID is the
// opaque identifier mutations require; Name is the human-facing label.
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// StateRef is the workflow state embedded in an issue payload.
type StateRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue is the subset of the Linear issue schema the sync workflow needs.
type Issue struct {
	ID         string   `json:"id"`
	Identifier string   `json:"identifier"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	State      StateRef `json:"state"`
}

// Project is a Linear project; State holds its status slug (e.g. "completed").
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}
