package services

import (
	"fmt"
	"strings"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"study-ai/internal/models"
)

// ReviewScheduler computes the next FSRS state of a flashcard. The caller
// owns the card state and sends it back with every review.
type ReviewScheduler struct {
	params fsrs.Parameters
}

func NewReviewScheduler() *ReviewScheduler {
	return &ReviewScheduler{params: fsrs.DefaultParam()}
}

func (s *ReviewScheduler) Review(card models.ReviewCard, rating fsrs.Rating, now time.Time) (models.ReviewCard, models.ReviewLog, error) {
	if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
		return models.ReviewCard{}, models.ReviewLog{}, fmt.Errorf("%w: card question and answer are required", ErrInput)
	}

	now = now.UTC()
	scheduling := s.params.Repeat(card.ToFSRSCard(), now)
	info, ok := scheduling[rating]
	if !ok {
		return models.ReviewCard{}, models.ReviewLog{}, fmt.Errorf("%w: rating %d not supported", ErrInput, rating)
	}
	card.ApplyFSRSCard(info.Card)

	log := models.ReviewLog{
		Rating:        int(info.ReviewLog.Rating),
		ScheduledDays: int(info.ReviewLog.ScheduledDays),
		ElapsedDays:   int(info.ReviewLog.ElapsedDays),
		State:         int(info.ReviewLog.State),
		ReviewedAt:    now,
	}
	return card, log, nil
}

func ParseRating(raw string) (fsrs.Rating, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "again":
		return fsrs.Again, nil
	case "hard":
		return fsrs.Hard, nil
	case "good":
		return fsrs.Good, nil
	case "easy":
		return fsrs.Easy, nil
	default:
		return 0, fmt.Errorf("%w: unknown rating %q", ErrInput, raw)
	}
}
