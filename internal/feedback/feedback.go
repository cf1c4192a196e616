// Package feedback collects a free-text comment and a 1–5 rating. A
// submission is logged and reported to analytics, then the form is cleared;
// nothing is stored.
package feedback

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"pcb-viewer/internal/analytics"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrEmpty  = errors.New("feedback: text is empty")
	ErrRating = errors.New("feedback: rating must be between 1 and 5")
)

// ThankYou is the acknowledgment shown after a successful submission.
const ThankYou = "Thank you for your feedback!"

// Ack is returned on success.
type Ack struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Form is the in-memory state of the feedback widget.
type Form struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"` // 0 = nothing selected

	reporter analytics.Reporter
}

// NewForm returns an empty form reporting to r (nil discards events).
func NewForm(r analytics.Reporter) *Form {
	if r == nil {
		r = analytics.Nop{}
	}
	return &Form{reporter: r}
}

// Validate checks the current contents without submitting.
func (f *Form) Validate() error {
	if strings.TrimSpace(f.Text) == "" {
		return ErrEmpty
	}
	if f.Rating < MinRating || f.Rating > MaxRating {
		return ErrRating
	}
	return nil
}

// Submit validates, reports, and clears the form. On a validation error the
// form keeps its contents so the user can correct them.
func (f *Form) Submit(ctx context.Context) (Ack, error) {
	if err := f.Validate(); err != nil {
		return Ack{}, err
	}

	text := strings.TrimSpace(f.Text)
	log.Printf("feedback: rating=%d text=%q", f.Rating, text)
	f.reporter.Report(ctx, analytics.Event{
		Name:   analytics.EventFeedbackSubmitted,
		Params: map[string]any{"rating": f.Rating, "length": len(text)},
		Time:   time.Now(),
	})

	f.Reset()
	return Ack{Message: ThankYou, At: time.Now()}, nil
}

// Reset clears text and rating.
func (f *Form) Reset() {
	f.Text = ""
	f.Rating = 0
}
