// Package main provides an interactive console for running research questions
// against the pipeline without the HTTP API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LoganNickels654/research-assistant-service/internal/config"
	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/llm"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
	"github.com/LoganNickels654/research-assistant-service/internal/pipeline"
	"github.com/LoganNickels654/research-assistant-service/internal/pubmed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	maxPapers := flag.Int("max-papers", 10, "Number of papers to return per question")
	logLevel := flag.String("log-level", "warn", "Log level for pipeline internals")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Keep pipeline logging quiet by default so results stay readable.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	completionClient, err := llm.NewCompletionClient(llm.FactoryConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	pubmedClient := pubmed.New(pubmed.Config{
		BaseURL:       cfg.PubMed.BaseURL,
		Email:         cfg.PubMed.Email,
		APIKey:        cfg.PubMed.APIKey,
		SearchTimeout: cfg.PubMed.SearchTimeout,
		FetchTimeout:  cfg.PubMed.FetchTimeout,
		RateLimit:     cfg.PubMed.RateLimit,
	})

	translator := pipeline.NewQueryTranslator(completionClient, logger)
	ranker := pipeline.NewRelevanceRanker(completionClient, logger)
	researchPipeline := pipeline.New(translator, pubmedClient, ranker, logger)

	fmt.Println("Research Assistant Console")
	fmt.Println("Type a research question, or 'quit' to exit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("question> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" {
			break
		}

		start := time.Now()
		papers := researchPipeline.ProcessResearchQuestion(ctx, question, *maxPapers)
		elapsed := time.Since(start).Round(100 * time.Millisecond)

		if len(papers) == 0 {
			fmt.Printf("\nNo papers found (%s).\n\n", elapsed)
			continue
		}

		fmt.Printf("\nFound %d papers in %s:\n\n", len(papers), elapsed)
		for i, p := range papers {
			printPaper(i+1, p)
		}

		if ctx.Err() != nil {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Println("Goodbye.")
	return nil
}

// printPaper renders a single ranked result for terminal display.
func printPaper(rank int, p *domain.Paper) {
	fmt.Printf("%d. %s\n", rank, p.Title)
	if len(p.Authors) > 0 {
		fmt.Printf("   Authors:   %s\n", strings.Join(p.Authors, ", "))
	}
	fmt.Printf("   Journal:   %s (%s)\n", p.Journal, p.Year)
	fmt.Printf("   Relevance: %.1f", p.RelevanceScore)
	if p.RelevanceReason != "" {
		fmt.Printf(" (%s)", p.RelevanceReason)
	}
	fmt.Println()
	if p.HasPMID() {
		fmt.Printf("   URL:       %s\n", p.SourceURL())
	}
	if p.Abstract != "" && p.Abstract != domain.PlaceholderAbstract {
		fmt.Printf("   Abstract:  %s\n", truncate(p.Abstract, 300))
	}
	fmt.Println()
}

// truncate shortens s to at most n characters on a rune boundary.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
