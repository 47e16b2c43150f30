package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/Ko-stant/scene-perception-engine/internal/fog"
	"github.com/Ko-stant/scene-perception-engine/internal/geometry"
	"github.com/Ko-stant/scene-perception-engine/internal/protocol"
	"github.com/Ko-stant/scene-perception-engine/internal/vision"
	"github.com/Ko-stant/scene-perception-engine/internal/ws"
)

// Server bundles the HTTP surface of the engine.
type Server struct {
	engine  PerceptionEngine
	intents *IntentHandlers
	hub     *ws.Hub
	comp    *vision.Compositor
	fog     *fog.Manager
	logger  Logger
}

func NewServer(engine PerceptionEngine, intents *IntentHandlers, hub *ws.Hub, comp *vision.Compositor, fogMgr *fog.Manager, logger Logger) *Server {
	return &Server{
		engine:  engine,
		intents: intents,
		hub:     hub,
		comp:    comp,
		fog:     fogMgr,
		logger:  logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/visibility", s.handleVisibility).Methods(http.MethodGet)
	r.HandleFunc("/api/mask", s.handleMask).Methods(http.MethodGet)
	r.HandleFunc("/api/fog", s.handleFog).Methods(http.MethodGet)
	r.HandleFunc("/api/fog/reset", s.handleFogReset).Methods(http.MethodPost)
	r.HandleFunc("/stream", s.handleStream)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseFloat(q string, fallback float64) float64 {
	if q == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(q, 64)
	if err != nil {
		return fallback
	}
	return f
}

// handleVisibility answers GET /api/visibility?x=&y=&token=&tolerance=.
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	xs, ys := q.Get("x"), q.Get("y")
	if xs == "" || ys == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y are required"})
		return
	}
	p := geometry.Point{X: parseFloat(xs, 0), Y: parseFloat(ys, 0)}
	opts := vision.TestOptions{
		Tolerance: parseFloat(q.Get("tolerance"), 0),
		IsToken:   q.Get("token") == "1" || q.Get("token") == "true",
	}
	writeJSON(w, http.StatusOK, s.engine.TestVisibility(p, opts))
}

// handleMask serves the current composite vision mask as a base64 PNG.
func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	s.engine.Refresh()
	state := s.engine.State()
	state.Lock.Lock()
	defer state.Lock.Unlock()

	encoded, err := fog.Encode(s.comp.Mask())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mask": encoded})
}

// handleFog serves the exploration texture with its handle so clients can
// detect resets.
func (s *Server) handleFog(w http.ResponseWriter, r *http.Request) {
	if s.fog == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "fog exploration disabled"})
		return
	}
	encoded, err := fog.Encode(s.fog.Texture())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"explored": encoded,
		"handle":   s.fog.Handle().String(),
	})
}

func (s *Server) handleFogReset(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ResetFog(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleStream upgrades to a WebSocket, pushes the current perception state,
// then consumes intents until the peer disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	s.hub.Add(conn)

	hello, _ := json.Marshal(protocol.PatchEnvelope{
		Sequence: 0,
		Type:     protocol.TypeSightRefreshed,
		Payload:  protocol.SightRefreshed{},
	})
	_ = conn.Write(context.Background(), websocket.MessageText, hello)

	go func(c *websocket.Conn) {
		defer s.hub.Remove(c)
		defer c.Close(websocket.StatusNormalClosure, "")
		for {
			_, data, err := c.Read(context.Background())
			if err != nil {
				return
			}
			if err := s.intents.HandleWebSocketMessage(data); err != nil {
				s.logger.Printf("intent failed: %v", err)
			}
		}
	}(conn)
}
