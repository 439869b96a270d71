package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"research-agent/internal/di"
	"research-agent/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	fmt.Println("\nEnter a research question:")
	reader := bufio.NewReader(os.Stdin)
	question, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("failed to read input: ", err)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		log.Fatal("question is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	container, err := di.NewContainer(di.Config{
		OpenRouterAPIKey: envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.MustGet("OPENROUTER_MODEL_NAME"),
		TavilyAPIKey:     envService.MustGet("TAVILY_API_KEY"),
		SearchMaxResults: envService.GetInt("SEARCH_MAX_RESULTS", 5),
		SearchDepth:      envService.GetDefault("SEARCH_DEPTH", "basic"),
		LLMTimeout:       time.Duration(envService.GetInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		SearchTimeout:    time.Duration(envService.GetInt("SEARCH_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxIterations:    envService.GetInt("MAX_ITERATIONS", 30),
		Debug:            envService.GetBool("DEBUG", false),
	})
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer container.Close()

	fmt.Println("\nResearching...")

	result := container.Researcher.Research(ctx, question)

	fmt.Println("\nANSWER:")
	fmt.Println(result.Answer)

	if len(result.Sources) > 0 {
		fmt.Println("\nSOURCES:")
		for _, src := range result.Sources {
			fmt.Printf("- %s (%s)\n", src.Title, src.URL)
		}
	}

	fmt.Printf("\nqueries: %d, sources: %d, errors: %d, took %s\n",
		result.Stats.QueriesExecuted,
		result.Stats.SourcesFound,
		len(result.Stats.Errors),
		result.Stats.Duration.Round(time.Millisecond))

	for _, e := range result.Stats.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}
