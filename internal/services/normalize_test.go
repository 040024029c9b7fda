package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"study-ai/internal/models"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[1,2]\n```", "[1,2]"},
		{"bare fence", "```\n{\"x\":1}\n```", `{"x":1}`},
		{"surrounding whitespace", "  \n```json\n[]\n```\n  ", "[]"},
		{"crlf", "```json\r\n[3]\r\n```", "[3]"},
		{"inner fence kept", "prefix ```json\n[1]\n```", "prefix ```json\n[1]"},
		{"inline code kept", "a ```code``` b", "a ```code``` b"},
		{"trailing inline code kept", "see ```x```", "see ```x```"},
		{"inline code in json kept", "[\"use ```x```\"]", "[\"use ```x```\"]"},
		{"fence lines only", "```json\n```", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFences(tc.in); got != tc.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRepairEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no backslash", `{"a":"b"}`, `{"a":"b"}`},
		{"latex", `{"q":"\pi and \cos"}`, `{"q":"\\pi and \\cos"}`},
		{"legal escapes kept", `{"q":"line\nquote\" tab\t \u00e9"}`, `{"q":"line\nquote\" tab\t \u00e9"}`},
		{"escaped backslash kept", `{"q":"\\pi"}`, `{"q":"\\pi"}`},
		{"trailing backslash", `abc\`, `abc\\`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RepairEscapes(tc.in); got != tc.want {
				t.Fatalf("RepairEscapes(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeFencedLatexFlashcards(t *testing.T) {
	raw := "```json\n[{\"question\": \"What is \\sigma?\", \"answer\": \"An angle, see \\pi\"}]\n```"

	var cards []models.Flashcard
	if err := Normalize(raw, &cards); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []models.Flashcard{{Question: `What is \sigma?`, Answer: `An angle, see \pi`}}
	if diff := cmp.Diff(want, cards); diff != "" {
		t.Fatalf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeFailures(t *testing.T) {
	for _, raw := range []string{"", "   ", "```json\n```", "not json at all", `{"question": "x"}`} {
		var cards []models.Flashcard
		err := Normalize(raw, &cards)
		if !errors.Is(err, ErrNormalization) {
			t.Fatalf("Normalize(%q) error = %v, want ErrNormalization", raw, err)
		}
	}
}

func TestNormalizeRoundTripsFlashcards(t *testing.T) {
	want := []models.Flashcard{
		{Question: "What does `x` hold?", Answer: "see ```x``` above"},
		{Question: `Derive \frac{a}{b} and \pi`, Answer: "line one\nline two"},
		{Question: "Is 1 < 2 && 3 > 2?", Answer: "Oui, évidemment"},
		{Question: "```", Answer: ""},
	}
	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	for _, in := range []string{string(raw), "```json\n" + string(raw) + "\n```"} {
		var got []models.Flashcard
		if err := Normalize(in, &got); err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("cards mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestNormalizeRoundTripsQuiz(t *testing.T) {
	want := []models.QuizQuestion{
		{
			Question: `Which is \sqrt{2}?`,
			Options:  models.QuizOptions{A: "1.414", B: "`two`", C: "a ```code``` b", D: `\infty`},
			Answer:   "A",
		},
		{
			Question: "Capital of France?",
			Options:  models.QuizOptions{A: "Lyon", B: "Paris", C: "Nice", D: "Lille"},
			Answer:   "B",
		},
	}
	raw, err := json.MarshalIndent(want, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	var got []models.QuizQuestion
	if err := Normalize(string(raw), &got); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("quiz mismatch (-want +got):\n%s", diff)
	}
}
