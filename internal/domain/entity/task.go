package entity

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusComplete   TaskStatus = "complete"
	TaskStatusFailed     TaskStatus = "failed"
)

// Step is the routing signal every stage must set before returning.
type Step string

const (
	StepGather     Step = "gather"
	StepAnalyze    Step = "analyze"
	StepSynthesize Step = "synthesize"
	StepDone       Step = "done"
)

type PlannedQuery struct {
	Text      string `json:"text"`
	Rationale string `json:"rationale"`
}

type Plan struct {
	MainQuestion string         `json:"main_question"`
	Queries      []PlannedQuery `json:"queries"`
}

type SourceRecord struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchEntry holds the sources returned for one executed query.
// TaskState keeps at most one entry per distinct query text.
type SearchEntry struct {
	Query   string         `json:"query"`
	Sources []SourceRecord `json:"sources"`
}

type Conflict struct {
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
}

type Analysis struct {
	KeyFindings   []string           `json:"key_findings"`
	KnowledgeGaps []string           `json:"knowledge_gaps"`
	Conflicts     []Conflict         `json:"conflicts"`
	Credibility   map[string]float64 `json:"credibility"`
}

// TaskState is the single mutable record threaded through every stage of one
// research run. SearchResults, Attempted, Messages and Errors are append-only.
type TaskState struct {
	ID            string
	Question      string
	Status        TaskStatus
	Plan          *Plan
	SearchResults []SearchEntry
	// Attempted records every query issued to the retrieval service, in
	// order, including queries whose retrieval call failed. Gather's
	// completion test compares it against the plan, so a run with a broken
	// retrieval backend still terminates.
	Attempted   []string
	Analysis    *Analysis
	FinalAnswer string
	NextStep    Step
	Messages    []Message
	Errors      []string
	StartedAt   time.Time
}

func NewTaskState(id, question string) *TaskState {
	return &TaskState{
		ID:        id,
		Question:  question,
		Status:    TaskStatusPending,
		NextStep:  StepGather,
		StartedAt: time.Now(),
	}
}

// HasAttempted reports whether a retrieval call was already issued for the
// exact query text. Stages must consult it before searching.
func (s *TaskState) HasAttempted(query string) bool {
	for _, q := range s.Attempted {
		if q == query {
			return true
		}
	}
	return false
}

func (s *TaskState) AddSearchEntry(query string, sources []SourceRecord) {
	for _, e := range s.SearchResults {
		if e.Query == query {
			return
		}
	}
	s.SearchResults = append(s.SearchResults, SearchEntry{Query: query, Sources: sources})
}

func (s *TaskState) AppendMessage(role MessageRole, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

func (s *TaskState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// Fail marks the run fatally failed. Failed is sticky and forces NextStep to
// Done in the same mutation, so no further stage can run.
func (s *TaskState) Fail(msg string) {
	s.AddError(msg)
	s.Status = TaskStatusFailed
	s.NextStep = StepDone
}
