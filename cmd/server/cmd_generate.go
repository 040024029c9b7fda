package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"study-ai/internal/services"
)

var (
	generateKind   string
	generateCount  int
	generatePrompt string
)

func init() {
	generateCmd.Flags().StringVarP(&generateKind, "kind", "k", "summary", "artifact to generate: summary, flashcards or quiz")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "number of flashcards or questions (default 10 flashcards, 5 questions)")
	generateCmd.Flags().StringVarP(&generatePrompt, "prompt", "p", "", "extra instruction for the summary")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate <pdf path or URL>",
	Short: "Generate a study artifact for a PDF and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	text, err := services.NewPDFService(nil).Extract(ctx, args[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: No text found in PDF", services.ErrInput)
	}

	model, err := newModel(ctx, cfg, log)
	if err != nil {
		return err
	}
	study := services.NewStudyService(model, log)

	var out any
	switch strings.ToLower(generateKind) {
	case "summary":
		summary, err := study.GenerateSummary(ctx, text, generatePrompt)
		if err != nil {
			return err
		}
		out = map[string]string{"summary": summary}
	case "flashcards":
		out = map[string]any{"flashcards": study.GenerateFlashcards(ctx, text, countOr(10))}
	case "quiz":
		out = map[string]any{"quiz": study.GenerateQuiz(ctx, text, countOr(5))}
	default:
		return fmt.Errorf("unknown kind %q", generateKind)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func countOr(fallback int) int {
	if generateCount > 0 {
		return generateCount
	}
	return fallback
}
