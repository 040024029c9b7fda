package services

import (
	"fmt"
	"strings"
)

// Per-artifact source text budgets, counted in characters.
const (
	summaryTextLimit   = 10000
	flashcardTextLimit = 12000
	quizTextLimit      = 15000
)

const noMemoryPlaceholder = "None"

// BuildSummaryPrompt asks for a concise academic summary, optionally steered
// by a free-form instruction from the user.
func BuildSummaryPrompt(text, instruction string) string {
	var b strings.Builder
	b.WriteString(`You are an academic assistant.

Summarize the following academic content clearly and concisely.
Focus on:
- Key concepts
- Important definitions
- Main results or conclusions
`)
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		b.WriteString("\nAdditional instructions from the user:\n")
		b.WriteString(instruction)
		b.WriteString("\n")
	}
	b.WriteString("\nContent:\n")
	b.WriteString(truncateRunes(text, summaryTextLimit))
	return b.String()
}

func BuildFlashcardPrompt(text string, n int) string {
	return fmt.Sprintf(`You are an academic assistant.

Generate exactly %d flashcards from the notes.

Rules:
- Questions and answers must be plain text
- DO NOT use LaTeX, mathematical notation or symbols
- Output ONLY a valid JSON array (no markdown, no code fences)

Format:
[
  {
    "question": "...",
    "answer": "..."
  }
]

Notes:
%s`, n, truncateRunes(text, flashcardTextLimit))
}

// BuildQuizPrompt switches between conceptual and data-lookup questions
// depending on what the text looks like, and asks for an empty array when
// the text cannot support a quiz.
func BuildQuizPrompt(text string, n int) string {
	return fmt.Sprintf(`Analyze the provided text and generate exactly %d multiple-choice questions.

CRITICAL INSTRUCTIONS:
1. If the text is educational content, ask conceptual questions.
2. If the text is structured data (like a ranklist, scoreboard, or table), ask data-lookup questions that reference specific rows or fields (e.g. "Which team secured Rank 1?", "What is the score of X?").
3. If the text is insufficient or random noise, return an empty array. Never invent questions the text cannot support.

Each question has exactly four options keyed "A", "B", "C" and "D", and "answer" is the key of the correct option.

Text Content:
%s`, n, truncateRunes(text, quizTextLimit))
}

// quizJSONInstructions is appended to the quiz prompt when the provider
// cannot constrain its output with a schema.
const quizJSONInstructions = `

Output ONLY a valid JSON array (no markdown, no code fences) in this format:
[
  {
    "question": "...",
    "options": {"A": "...", "B": "...", "C": "...", "D": "..."},
    "answer": "A"
  }
]`

// BuildChatPrompt embeds the caller's memory digest, or an explicit None
// marker when there is none.
func BuildChatPrompt(message, memory string) string {
	memory = strings.TrimSpace(memory)
	if memory == "" {
		memory = noMemoryPlaceholder
	}
	return fmt.Sprintf(`You are an AI assistant helping users in a group chat.

IMPORTANT RULES:
- Respect privacy
- Do NOT include usernames or personal details
- Use only the provided summary as memory

Previous context summary:
%s

Current Question:
%s

TASK:
1. RESPONSE: write a helpful educational response to the user.
2. SUMMARY: write a brief privacy-safe summary (max 2 sentences) of ONLY the new academic content discussed in this turn.`, memory, strings.TrimSpace(message))
}

// ChatFallbackPrompt adds the plain-text delimiter format used when
// structured output is not available.
func ChatFallbackPrompt(prompt string) string {
	return prompt + "\n\nFORMAT YOUR OUTPUT EXACTLY AS:\nRESPONSE:\n<your response>\n\nSUMMARY:\n<your summary>"
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
