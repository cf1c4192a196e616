package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPReporterPostsJSON(t *testing.T) {
	got := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var e Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode: %v", err)
		}
		got <- e
	}))
	defer srv.Close()

	h := NewHTTPReporter(srv.URL)
	h.Report(context.Background(), Event{Name: EventTutorialStep, Params: map[string]any{"index": 2}})
	h.Wait()

	e := <-got
	if e.Name != EventTutorialStep {
		t.Errorf("name = %q", e.Name)
	}
	if e.Time.IsZero() {
		t.Error("time should be stamped")
	}
}

func TestHTTPReporterSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	h := NewHTTPReporter(url)
	h.Report(context.Background(), Event{Name: EventPartSelected})
	h.Wait()
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Report(context.Background(), Event{Name: "a"})
	r.Report(context.Background(), Event{Name: "b"})
	if ev := r.Events(); len(ev) != 2 || ev[1].Name != "b" {
		t.Errorf("Events = %+v", ev)
	}
}
