package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pcb-viewer/internal/analytics"
	"pcb-viewer/internal/feedback"
	"pcb-viewer/internal/mathutil"
	"pcb-viewer/internal/pick"
	"pcb-viewer/internal/scene"
	"pcb-viewer/internal/tutorial"
	"pcb-viewer/internal/viewer"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sess, err := viewer.New(viewer.Options{
		Steps: []tutorial.Step{
			{Part: "Microcontroller", Text: "brain"},
			{Part: "LED", Text: "light"},
		},
		Reporter: &analytics.Recorder{},
		Loader: func(string) (*scene.Node, error) {
			return scene.NewNode("Scene").Add(
				scene.NewBox("Microcontroller", mathutil.Vec3{-1, -1, -1}, mathutil.Vec3{1, 1, 1}),
			), nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Open(); err != nil {
		t.Fatal(err)
	}
	return NewServer(0, sess, 64)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body)
	}
}

func TestIndex(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/api/frame") {
		t.Errorf("index = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path = %d, want 404", rec.Code)
	}
}

func TestFrameIsWebP(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/api/frame?w=32&h=24", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("frame = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/webp" {
		t.Errorf("content type = %q", ct)
	}
	b := rec.Body.Bytes()
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WEBP" {
		t.Errorf("body is not a WebP container")
	}

	if rec := do(t, h, http.MethodGet, "/api/frame?w=1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("tiny frame = %d, want 400", rec.Code)
	}
}

func TestPick(t *testing.T) {
	h := newTestServer(t).Handler()

	var sel pick.Selection
	rec := do(t, h, http.MethodGet, "/api/pick?x=32&y=32&w=64&h=64", "")
	json.NewDecoder(rec.Body).Decode(&sel)
	if !sel.Selected || sel.Part != "Microcontroller" || sel.Cursor != pick.CursorPointer {
		t.Errorf("centre pick = %+v", sel)
	}

	rec = do(t, h, http.MethodGet, "/api/pick?x=0&y=0&w=64&h=64", "")
	sel = pick.Selection{}
	json.NewDecoder(rec.Body).Decode(&sel)
	if sel.Selected || sel.Cursor != pick.CursorDefault {
		t.Errorf("corner pick = %+v", sel)
	}

	if rec := do(t, h, http.MethodGet, "/api/pick?x=1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing size = %d, want 400", rec.Code)
	}
}

func TestTutorialWraps(t *testing.T) {
	h := newTestServer(t).Handler()

	var st viewer.StepState
	json.NewDecoder(do(t, h, http.MethodPost, "/api/tutorial/prev", "").Body).Decode(&st)
	if st.Index != 1 || st.Part != "LED" {
		t.Errorf("prev from first = %+v", st)
	}
	json.NewDecoder(do(t, h, http.MethodPost, "/api/tutorial/next", "").Body).Decode(&st)
	if st.Index != 0 || st.Part != "Microcontroller" {
		t.Errorf("next from last = %+v", st)
	}

	if rec := do(t, h, http.MethodGet, "/api/tutorial/next", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET next = %d, want 405", rec.Code)
	}
}

func TestFeedback(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		body string
		code int
		want string
	}{
		{`{"text": "", "rating": 4}`, http.StatusBadRequest, feedback.ErrEmpty.Error()},
		{`{"text": "nice", "rating": 0}`, http.StatusBadRequest, feedback.ErrRating.Error()},
		{`not json`, http.StatusBadRequest, "invalid body"},
		{`{"text": "nice", "rating": 5}`, http.StatusOK, feedback.ThankYou},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodPost, "/api/feedback", tt.body)
		if rec.Code != tt.code || !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s: got %d %s, want %d containing %q", tt.body, rec.Code, rec.Body, tt.code, tt.want)
		}
	}
}

func TestCamera(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodPost, "/api/camera", `{"op": "zoom", "factor": 0.5}`)
	var got map[string]float64
	json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || got["distance"] != 7.5 {
		t.Errorf("zoom = %d %v, want distance 7.5", rec.Code, got)
	}

	for _, body := range []string{`{"op": "spin"}`, `{"op": "zoom", "factor": -1}`} {
		if rec := do(t, h, http.MethodPost, "/api/camera", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", body, rec.Code)
		}
	}
}

func TestWebSocketHover(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var m message
	if err := conn.ReadJSON(&m); err != nil || m.Type != "step" || m.Step.Part != "Microcontroller" {
		t.Fatalf("greeting = %+v, %v", m, err)
	}

	conn.WriteJSON(message{Type: "pointer", X: 32, Y: 32, W: 64, H: 64})
	m = message{}
	if err := conn.ReadJSON(&m); err != nil || m.Selection == nil || m.Selection.Part != "Microcontroller" {
		t.Fatalf("hover reply = %+v, %v", m, err)
	}

	conn.WriteJSON(message{Type: "leave"})
	m = message{}
	if err := conn.ReadJSON(&m); err != nil || m.Selection == nil || m.Selection.Selected {
		t.Fatalf("leave reply = %+v, %v", m, err)
	}

	conn.WriteJSON(message{Type: "next"})
	m = message{}
	if err := conn.ReadJSON(&m); err != nil || m.Step == nil || m.Step.Part != "LED" {
		t.Fatalf("step broadcast = %+v, %v", m, err)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`))
	m = message{}
	if err := conn.ReadJSON(&m); err != nil || m.Type != "error" {
		t.Fatalf("bogus reply = %+v, %v", m, err)
	}
}
