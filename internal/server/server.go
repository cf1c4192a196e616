// Package server exposes a viewer session over HTTP and a websocket.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/HugoSmits86/nativewebp"

	"pcb-viewer/internal/feedback"
	"pcb-viewer/internal/viewer"
)

//go:embed static/index.html
var static embed.FS

// Server handles web requests for one viewer session.
type Server struct {
	port       int
	session    *viewer.Session
	renderSize int
	hub        *hub
}

// NewServer creates a server; renderSize is the default frame edge length.
func NewServer(port int, session *viewer.Session, renderSize int) *Server {
	if renderSize <= 0 {
		renderSize = 512
	}
	return &Server{port: port, session: session, renderSize: renderSize, hub: newHub()}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/pick", s.handlePick)
	mux.HandleFunc("/api/tutorial", s.handleTutorial)
	mux.HandleFunc("/api/tutorial/next", s.handleTutorialStep)
	mux.HandleFunc("/api/tutorial/prev", s.handleTutorialStep)
	mux.HandleFunc("/api/camera", s.handleCamera)
	mux.HandleFunc("/api/feedback", s.handleFeedback)
	mux.HandleFunc("/api/scene", s.handleScene)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start starts the web server and blocks.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleIndex serves the single-page client
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFrame renders the current view as a lossless WebP
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, err := parseIntParam(q, "w", s.renderSize, 16, 2048)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := parseIntParam(q, "h", s.renderSize, 16, 2048)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	frame := s.session.Render(width, height, false)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, frame.Image, &nativewebp.Options{}); err != nil {
		log.Printf("server: encode frame: %v", err)
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(buf.Bytes())
}

// handlePick answers which part is under a pixel of a w×h viewport
func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pt, err := parsePointer(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.session.Pointer(pt.X, pt.Y, pt.W, pt.H))
}

func (s *Server) handleTutorial(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Step())
}

// handleTutorialStep moves the tutorial; the path decides the direction
func (s *Server) handleTutorialStep(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var st viewer.StepState
	if r.URL.Path == "/api/tutorial/prev" {
		st = s.session.Prev()
	} else {
		st = s.session.Next()
	}
	s.hub.broadcast(message{Type: "step", Step: &st})
	writeJSON(w, http.StatusOK, st)
}

// CameraRequest is the body of POST /api/camera.
type CameraRequest struct {
	Op     string  `json:"op"` // orbit, pan or zoom
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Factor float64 `json:"factor"`
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req CameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if err := s.applyCamera(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cam := s.session.Camera()
	writeJSON(w, http.StatusOK, map[string]float64{
		"azimuth":  cam.Azimuth,
		"polar":    cam.Polar,
		"distance": cam.Distance,
	})
}

func (s *Server) applyCamera(req CameraRequest) error {
	switch req.Op {
	case "orbit":
		s.session.Orbit(req.DX, req.DY)
	case "pan":
		s.session.Pan(req.DX, req.DY)
	case "zoom":
		if req.Factor <= 0 {
			return fmt.Errorf("zoom factor must be positive, got: %g", req.Factor)
		}
		s.session.Zoom(req.Factor)
	default:
		return fmt.Errorf("unknown camera op: %q", req.Op)
	}
	return nil
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	ack, err := s.session.SubmitFeedback(r.Context(), req.Text, req.Rating)
	switch {
	case errors.Is(err, feedback.ErrEmpty), errors.Is(err, feedback.ErrRating):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// handleScene lists the loaded parts and the current highlight
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	info := s.session.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"parts":       info.Parts,
		"highlighted": info.Highlight,
		"meshes":      info.Stats.Meshes,
		"triangles":   info.Stats.Triangles,
		"scale":       info.Scale,
	})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type pointer struct {
	X, Y float64
	W, H int
}

func parsePointer(q url.Values) (pointer, error) {
	var p pointer
	var err error
	if p.W, err = parseIntParam(q, "w", 0, 1, 8192); err != nil {
		return p, err
	}
	if p.H, err = parseIntParam(q, "h", 0, 1, 8192); err != nil {
		return p, err
	}
	if p.W == 0 || p.H == 0 {
		return p, fmt.Errorf("w and h are required")
	}
	if p.X, err = parseFloatParam(q, "x", 0, 0, float64(p.W)); err != nil {
		return p, err
	}
	if p.Y, err = parseFloatParam(q, "y", 0, 0, float64(p.H)); err != nil {
		return p, err
	}
	return p, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
