package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"pcb-viewer/internal/pick"
	"pcb-viewer/internal/viewer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the page is served from the same process
	},
}

// message is both what clients send and what the server answers with.
//
// Client → server: {"type":"pointer","x":..,"y":..,"w":..,"h":..},
// {"type":"leave"}, {"type":"next"}, {"type":"prev"}.
// Server → client: {"type":"selection","selection":{..}} or
// {"type":"step","step":{..}}; errors as {"type":"error","error":".."}.
type message struct {
	Type      string            `json:"type"`
	X         float64           `json:"x,omitempty"`
	Y         float64           `json:"y,omitempty"`
	W         int               `json:"w,omitempty"`
	H         int               `json:"h,omitempty"`
	Selection *pick.Selection   `json:"selection,omitempty"`
	Step      *viewer.StepState `json:"step,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// hub tracks connected clients so step changes reach every open page.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *hub) add(c *websocket.Conn) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	wmu := &sync.Mutex{}
	h.clients[c] = wmu
	return wmu
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// broadcast sends m to all clients; a failed write drops the client.
func (h *hub) broadcast(m message) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("server: marshal %s: %v", m.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c, wmu := range h.clients {
		wmu.Lock()
		err := c.WriteMessage(websocket.TextMessage, data)
		wmu.Unlock()
		if err != nil {
			log.Printf("server: websocket write: %v", err)
			c.Close()
			delete(h.clients, c)
		}
	}
}

// handleWebSocket runs the hover loop: each pointer message is answered with
// the selection under it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	wmu := s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		conn.Close()
	}()

	send := func(m message) error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteJSON(m)
	}

	st := s.session.Step()
	if err := send(message{Type: "step", Step: &st}); err != nil {
		return
	}

	for {
		var in message
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		switch in.Type {
		case "pointer":
			if in.W <= 0 || in.H <= 0 {
				err = send(message{Type: "error", Error: "pointer needs w and h"})
				break
			}
			sel := s.session.Pointer(in.X, in.Y, in.W, in.H)
			err = send(message{Type: "selection", Selection: &sel})
		case "leave":
			sel := s.session.Leave()
			err = send(message{Type: "selection", Selection: &sel})
		case "next", "prev":
			var st viewer.StepState
			if in.Type == "next" {
				st = s.session.Next()
			} else {
				st = s.session.Prev()
			}
			s.hub.broadcast(message{Type: "step", Step: &st})
		default:
			err = send(message{Type: "error", Error: "unknown message type: " + in.Type})
		}
		if err != nil {
			return
		}
	}
}
