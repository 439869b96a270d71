package prompts

import (
	_ "embed"
)

//go:embed planning.txt
var PlanningPrompt string

//go:embed analysis.txt
var AnalysisPrompt string

//go:embed synthesis.txt
var SynthesisPrompt string

//go:embed extract.txt
var ExtractPrompt string
