package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"study-ai/internal/llm"
	"study-ai/internal/logger"
	"study-ai/internal/models"
)

// MinQuizTextLength is the shortest trimmed text, in characters, worth a
// quiz generation call.
const MinQuizTextLength = 50

const (
	fallbackSummary     = "no new information to summarize"
	fallbackChatAnswer  = "I apologize, I couldn't generate a response."
	fallbackChatSummary = "Unable to generate summary."
	summaryMarker       = "SUMMARY:"
	responseMarker      = "RESPONSE:"
)

var (
	summaryOptions   = llm.Options{Temperature: 0.4, MaxOutputTokens: 2048}
	flashcardOptions = llm.Options{Temperature: 0.4, MaxOutputTokens: 4096}
	quizOptions      = llm.Options{Temperature: 1.0, MaxOutputTokens: 8192}
	chatOptions      = llm.Options{Temperature: 0.7, MaxOutputTokens: 2048}
)

var quizSchema = jsonschema.Definition{
	Type: jsonschema.Array,
	Items: &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"question": {Type: jsonschema.String},
			"options": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"A": {Type: jsonschema.String},
					"B": {Type: jsonschema.String},
					"C": {Type: jsonschema.String},
					"D": {Type: jsonschema.String},
				},
				Required:             []string{"A", "B", "C", "D"},
				AdditionalProperties: false,
			},
			"answer": {Type: jsonschema.String, Enum: []string{"A", "B", "C", "D"}},
		},
		Required:             []string{"question", "options", "answer"},
		AdditionalProperties: false,
	},
}

var chatSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"response": {Type: jsonschema.String},
		"summary":  {Type: jsonschema.String},
	},
	Required:             []string{"response", "summary"},
	AdditionalProperties: false,
}

// StudyService turns document text into study artifacts with a language
// model. Flashcard and quiz generation never fail: unusable output becomes
// an empty result and is logged with the raw text for diagnosis.
type StudyService struct {
	model llm.Model
	log   *logger.Logger
}

func NewStudyService(model llm.Model, log *logger.Logger) *StudyService {
	return &StudyService{model: model, log: log.With("service", "StudyService")}
}

func (s *StudyService) GenerateSummary(ctx context.Context, text, instruction string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text found in PDF", ErrInput)
	}
	raw, err := s.model.Generate(ctx, BuildSummaryPrompt(text, instruction), summaryOptions)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrModelInvocation, err)
	}
	return strings.TrimSpace(raw), nil
}

func (s *StudyService) GenerateFlashcards(ctx context.Context, text string, n int) []models.Flashcard {
	cards := []models.Flashcard{}
	if strings.TrimSpace(text) == "" {
		return cards
	}

	raw, err := s.model.Generate(ctx, BuildFlashcardPrompt(text, n), flashcardOptions)
	if err != nil {
		s.log.Warn("flashcard generation failed", "error", err)
		return cards
	}
	if err := Normalize(raw, &cards); err != nil {
		s.log.Warn("flashcard output could not be parsed", "error", err, "raw", raw)
		return []models.Flashcard{}
	}

	out := make([]models.Flashcard, 0, len(cards))
	for _, card := range cards {
		card.Question = strings.TrimSpace(card.Question)
		card.Answer = strings.TrimSpace(card.Answer)
		if card.Question == "" || card.Answer == "" {
			continue
		}
		out = append(out, card)
	}
	s.log.Debug("flashcards generated", "requested", n, "returned", len(out))
	return out
}

func (s *StudyService) GenerateQuiz(ctx context.Context, text string, n int) []models.QuizQuestion {
	quiz := []models.QuizQuestion{}
	if len([]rune(strings.TrimSpace(text))) < MinQuizTextLength {
		s.log.Info("quiz skipped, text too short", "chars", len(strings.TrimSpace(text)))
		return quiz
	}

	prompt := BuildQuizPrompt(text, n)
	opts := quizOptions
	opts.Schema = &quizSchema
	opts.SchemaName = "quiz"

	raw, err := s.model.Generate(ctx, prompt, opts)
	if errors.Is(err, llm.ErrStructuredOutputUnsupported) {
		raw, err = s.model.Generate(ctx, prompt+quizJSONInstructions, quizOptions)
	}
	if err != nil {
		s.log.Warn("quiz generation failed", "error", err)
		return quiz
	}
	if err := Normalize(raw, &quiz); err != nil {
		s.log.Warn("quiz output could not be parsed", "error", err, "raw", raw)
		return []models.QuizQuestion{}
	}

	out := make([]models.QuizQuestion, 0, len(quiz))
	for _, q := range quiz {
		if cleaned, ok := cleanQuizQuestion(q); ok {
			out = append(out, cleaned)
		}
	}
	s.log.Debug("quiz generated", "requested", n, "returned", len(out))
	return out
}

func cleanQuizQuestion(q models.QuizQuestion) (models.QuizQuestion, bool) {
	q.Question = strings.TrimSpace(q.Question)
	q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
	q.Options.A = strings.TrimSpace(q.Options.A)
	q.Options.B = strings.TrimSpace(q.Options.B)
	q.Options.C = strings.TrimSpace(q.Options.C)
	q.Options.D = strings.TrimSpace(q.Options.D)
	if q.Question == "" || q.Options.A == "" || q.Options.B == "" || q.Options.C == "" || q.Options.D == "" {
		return q, false
	}
	switch q.Answer {
	case "A", "B", "C", "D":
		return q, true
	}
	return q, false
}

// GenerateChatReply answers message using memory as the only context. It
// prefers schema-constrained output; if that call fails or its body cannot
// be parsed, the prompt is reissued once in the RESPONSE:/SUMMARY: text
// format. A failure of that second call is returned.
func (s *StudyService) GenerateChatReply(ctx context.Context, message, memory string) (models.ChatReply, error) {
	prompt := BuildChatPrompt(message, memory)

	opts := chatOptions
	opts.Schema = &chatSchema
	opts.SchemaName = "chat_reply"
	raw, err := s.model.Generate(ctx, prompt, opts)
	if err == nil {
		var reply models.ChatReply
		if perr := Normalize(raw, &reply); perr == nil {
			if strings.TrimSpace(reply.Response) == "" {
				reply.Response = fallbackChatAnswer
			}
			if strings.TrimSpace(reply.Summary) == "" {
				reply.Summary = fallbackChatSummary
			}
			return reply, nil
		} else {
			s.log.Warn("structured chat output could not be parsed, falling back to text", "error", perr, "raw", raw)
		}
	} else {
		s.log.Warn("structured chat call failed, falling back to text", "error", err)
	}

	raw, err = s.model.Generate(ctx, ChatFallbackPrompt(prompt), chatOptions)
	if err != nil {
		return models.ChatReply{}, fmt.Errorf("%w: %w", ErrModelInvocation, err)
	}
	return ParseDelimited(raw), nil
}

// ParseDelimited splits plain-text chat output on the first SUMMARY:
// marker. Without the marker the whole text is the response.
func ParseDelimited(text string) models.ChatReply {
	text = strings.TrimSpace(text)
	before, after, found := strings.Cut(text, summaryMarker)
	if !found {
		return models.ChatReply{Response: text, Summary: fallbackSummary}
	}
	return models.ChatReply{
		Response: strings.TrimSpace(strings.Replace(before, responseMarker, "", 1)),
		Summary:  strings.TrimSpace(after),
	}
}
