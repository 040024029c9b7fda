package models

import (
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
)

// Flashcard is a single question/answer pair generated from a document.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizOptions maps the four option keys to their text.
type QuizOptions struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

type QuizQuestion struct {
	Question string      `json:"question"`
	Options  QuizOptions `json:"options"`
	Answer   string      `json:"answer"`
}

// ChatReply is the answer to a chat turn plus the privacy-scrubbed digest of
// what the turn introduced. Summary replaces the caller's memory string.
type ChatReply struct {
	Response string `json:"response"`
	Summary  string `json:"summary"`
}

// OAuthSession holds the credential material obtained by an authorization
// code exchange.
type OAuthSession struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Clone returns a copy that shares no memory with s.
func (s OAuthSession) Clone() OAuthSession {
	out := s
	if s.Scopes != nil {
		out.Scopes = append([]string(nil), s.Scopes...)
	}
	return out
}

// Document is an uploaded source PDF.
type Document struct {
	ID           int64     `json:"id,omitempty"`
	OriginalName string    `json:"original_name"`
	StoredKey    string    `json:"stored_key"`
	URL          string    `json:"url"`
	PageCount    int       `json:"page_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ReviewCard is a flashcard together with the FSRS state the caller keeps
// between reviews.
type ReviewCard struct {
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Due           *time.Time `json:"due,omitempty"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   int        `json:"elapsed_days"`
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	State         int        `json:"state"`
	LastReview    *time.Time `json:"last_review,omitempty"`
}

type ReviewLog struct {
	Rating        int       `json:"rating"`
	ScheduledDays int       `json:"scheduled_days"`
	ElapsedDays   int       `json:"elapsed_days"`
	State         int       `json:"state"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

func (c *ReviewCard) ToFSRSCard() fsrs.Card {
	card := fsrs.Card{
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(max(c.ElapsedDays, 0)),
		ScheduledDays: uint64(max(c.ScheduledDays, 0)),
		Reps:          uint64(max(c.Reps, 0)),
		Lapses:        uint64(max(c.Lapses, 0)),
		State:         fsrs.State(max(c.State, 0)),
	}
	if c.Due != nil {
		card.Due = *c.Due
	}
	if c.LastReview != nil {
		card.LastReview = *c.LastReview
	}
	return card
}

func (c *ReviewCard) ApplyFSRSCard(f fsrs.Card) {
	c.Due = timePtr(f.Due)
	c.Stability = f.Stability
	c.Difficulty = f.Difficulty
	c.ElapsedDays = int(f.ElapsedDays)
	c.ScheduledDays = int(f.ScheduledDays)
	c.Reps = int(f.Reps)
	c.Lapses = int(f.Lapses)
	c.State = int(f.State)
	c.LastReview = timePtr(f.LastReview)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
