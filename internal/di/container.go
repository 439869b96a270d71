package di

import (
	"fmt"
	"time"

	"research-agent/internal/application/port/input"
	"research-agent/internal/application/port/output"
	"research-agent/internal/infrastructure/llm/openrouter"
	"research-agent/internal/infrastructure/logger"
	"research-agent/internal/infrastructure/search/tavily"
	"research-agent/internal/usecase/orchestrator"
	"research-agent/internal/usecase/stages"
)

type Container struct {
	LLM        output.LLMPort
	Search     output.SearchPort
	Logger     output.LoggerPort
	Researcher input.Researcher
}

type Config struct {
	OpenRouterAPIKey string
	OpenRouterModel  string
	TavilyAPIKey     string
	SearchMaxResults int
	SearchDepth      string
	LLMTimeout       time.Duration
	SearchTimeout    time.Duration
	MaxIterations    int
	Debug            bool
}

func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	llmCfg.Logger = log
	if cfg.LLMTimeout > 0 {
		llmCfg.Timeout = cfg.LLMTimeout
	}
	llm := openrouter.NewOpenRouterAdapter(llmCfg)

	searchCfg := tavily.DefaultConfig(cfg.TavilyAPIKey)
	searchCfg.Logger = log
	if cfg.SearchTimeout > 0 {
		searchCfg.Timeout = cfg.SearchTimeout
	}
	search := tavily.NewTavilyAdapter(searchCfg)

	maxResults := cfg.SearchMaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	depth := output.SearchDepth(cfg.SearchDepth)
	if depth == "" {
		depth = output.SearchDepthBasic
	}

	gather := stages.NewGather(llm, search, log, maxResults, depth)
	analyze := stages.NewAnalyze(llm, log)
	synthesize := stages.NewSynthesize(llm, log)

	researcher := orchestrator.New(gather, analyze, synthesize, log, orchestrator.Config{
		MaxIterations: cfg.MaxIterations,
	})

	return &Container{
		LLM:        llm,
		Search:     search,
		Logger:     log,
		Researcher: researcher,
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}
