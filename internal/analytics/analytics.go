// Package analytics reports fire-and-forget usage events. Nothing waits on a
// response and delivery failures are only logged.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// Event names emitted by the viewer.
const (
	EventPartSelected      = "part_selected"
	EventTutorialStep      = "tutorial_step"
	EventFeedbackSubmitted = "feedback_submitted"
)

// Event is one analytics record.
type Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
	Time   time.Time      `json:"time"`
}

// Reporter accepts events. Report must not block the caller.
type Reporter interface {
	Report(ctx context.Context, e Event)
}

// LogReporter writes events to the standard logger.
type LogReporter struct{}

func (LogReporter) Report(_ context.Context, e Event) {
	log.Printf("analytics: %s %v", e.Name, e.Params)
}

// Nop discards events.
type Nop struct{}

func (Nop) Report(context.Context, Event) {}

// HTTPReporter POSTs each event as JSON to URL from a background goroutine.
type HTTPReporter struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration

	wg sync.WaitGroup
}

// NewHTTPReporter returns a reporter with a short per-request timeout.
func NewHTTPReporter(url string) *HTTPReporter {
	return &HTTPReporter{URL: url, Client: http.DefaultClient, Timeout: 3 * time.Second}
}

func (h *HTTPReporter) Report(ctx context.Context, e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	body, err := json.Marshal(e)
	if err != nil {
		log.Printf("analytics: encode %s: %v", e.Name, err)
		return
	}

	// Detached from the caller's lifetime; the request may outlive it.
	ctx = context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, h.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
		if err != nil {
			log.Printf("analytics: %s: %v", e.Name, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := h.Client.Do(req)
		if err != nil {
			log.Printf("analytics: send %s: %v", e.Name, err)
			return
		}
		resp.Body.Close()
	}()
}

// Wait blocks until in-flight sends finish. Used on shutdown and in tests.
func (h *HTTPReporter) Wait() {
	h.wg.Wait()
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Report(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
