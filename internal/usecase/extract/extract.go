package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"research-agent/internal/application/port/output"
	"research-agent/internal/infrastructure/prompts"
)

// Schema describes the target shape for a structured-extraction call. Shape
// is a JSON sketch of the expected object; it is rendered into the fixed
// extraction instruction verbatim.
type Schema struct {
	Name  string
	Shape string
}

// ErrorSink receives a descriptive error when extraction falls back.
// *entity.TaskState satisfies it.
type ErrorSink interface {
	AddError(msg string)
}

// Run coerces free-form LLM text into a value of type T: one reasoning call
// with the extraction instruction, then a strict JSON parse of the reply.
// Extraction failure is never fatal; on any failure the error is appended to
// the sink and the fallback value is returned instead.
func Run[T any](
	ctx context.Context,
	llm output.LLMPort,
	logger output.LoggerPort,
	source string,
	schema Schema,
	fallback func() T,
	errs ErrorSink,
) T {
	prompt, err := prompts.GenerateExtractPrompt(schema.Name, schema.Shape, source)
	if err != nil {
		return fail[T](logger, errs, schema, fmt.Errorf("render extract prompt: %w", err), fallback)
	}

	response, err := llm.Complete(ctx, prompt, nil)
	if err != nil {
		return fail[T](logger, errs, schema, fmt.Errorf("extraction call failed: %w", err), fallback)
	}

	value, err := parseJSON[T](response)
	if err != nil {
		return fail[T](logger, errs, schema, err, fallback)
	}

	logger.Debug("Extraction succeeded", "schema", schema.Name)
	return value
}

func fail[T any](logger output.LoggerPort, errs ErrorSink, schema Schema, err error, fallback func() T) T {
	logger.Warn("Extraction failed, using fallback", "schema", schema.Name, "error", err)
	errs.AddError(fmt.Sprintf("extract %s: %v", schema.Name, err))
	return fallback()
}

// parseJSON pulls the first {...} block out of the response and unmarshals
// it. LLMs routinely wrap JSON in prose or markdown fences.
func parseJSON[T any](response string) (T, error) {
	var value T

	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return value, fmt.Errorf("no JSON found in response")
	}

	if err := json.Unmarshal([]byte(response[start:end+1]), &value); err != nil {
		return value, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return value, nil
}
