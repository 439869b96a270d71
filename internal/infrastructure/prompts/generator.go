package prompts

import (
	"bytes"
	"text/template"

	"research-agent/internal/domain/entity"
)

// The prompt generators render a read-only projection of the task state into
// the embedded templates. They never mutate the state.

type planningData struct {
	Question      string
	Status        entity.TaskStatus
	PlannedCount  int
	ExecutedCount int
}

func GeneratePlanningPrompt(state *entity.TaskState) (string, error) {
	data := planningData{
		Question:      state.Question,
		Status:        state.Status,
		ExecutedCount: len(state.SearchResults),
	}
	if state.Plan != nil {
		data.PlannedCount = len(state.Plan.Queries)
	}
	return render("planning", PlanningPrompt, data)
}

type analysisData struct {
	Question string
	Queries  []entity.PlannedQuery
	Results  []entity.SearchEntry
}

func GenerateAnalysisPrompt(state *entity.TaskState) (string, error) {
	data := analysisData{
		Question: state.Question,
		Results:  state.SearchResults,
	}
	if state.Plan != nil {
		data.Queries = state.Plan.Queries
	}
	return render("analysis", AnalysisPrompt, data)
}

type synthesisData struct {
	Question      string
	KeyFindings   []string
	KnowledgeGaps []string
	Conflicts     []entity.Conflict
	Results       []entity.SearchEntry
}

func GenerateSynthesisPrompt(state *entity.TaskState) (string, error) {
	data := synthesisData{
		Question: state.Question,
		Results:  state.SearchResults,
	}
	if state.Analysis != nil {
		data.KeyFindings = state.Analysis.KeyFindings
		data.KnowledgeGaps = state.Analysis.KnowledgeGaps
		data.Conflicts = state.Analysis.Conflicts
	}
	return render("synthesis", SynthesisPrompt, data)
}

type extractData struct {
	Name   string
	Shape  string
	Source string
}

// GenerateExtractPrompt renders the fixed structured-extraction instruction
// around a target shape description and the source text to convert.
func GenerateExtractPrompt(name, shape, source string) (string, error) {
	return render("extract", ExtractPrompt, extractData{
		Name:   name,
		Shape:  shape,
		Source: source,
	})
}

func render(name, tmplText string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(tmplText)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
