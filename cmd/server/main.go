package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"study-ai/internal/config"
	"study-ai/internal/llm"
	"study-ai/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "study-ai",
	Short: "Study aids from PDF documents",
	Long: `study-ai serves an HTTP API that turns PDF documents into summaries,
flashcards and quizzes, answers chat questions with a rolling memory digest
and lists Google Classroom courses.

Running without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newModel selects the configured provider. A missing API key leaves the
// server usable for routes that do not call the model.
func newModel(ctx context.Context, cfg config.Config, log *logger.Logger) (llm.Model, error) {
	var (
		model llm.Model
		err   error
	)
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		model, err = llm.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint, cfg.OpenAIStructuredOutput)
	default:
		model, err = llm.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		log.Warn("language model disabled, no API key set", "provider", cfg.LLMProvider)
		return llm.ModelFunc(func(context.Context, string, llm.Options) (string, error) {
			return "", llm.ErrNotConfigured
		}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.LLMProvider, err)
	}
	log.Info("language model ready", "provider", cfg.LLMProvider)
	return model, nil
}

func loadRuntime() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.AppMode)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}
