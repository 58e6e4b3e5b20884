package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ganot/taskdeck/internal/dashboard"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

var openStreams = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "taskdeck_realtime_streams",
	Help: "Open /realtime websocket streams.",
})

// Frame is one message on the realtime stream.
type Frame struct {
	Type  string           `json:"type"`
	State *dashboard.State `json:"state,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			if s.origins == nil {
				return true
			}
			return s.origins[r.Header.Get("Origin")]
		},
	}
}

// handleRealtime streams the session's dashboard state: one frame on connect
// and one after every applied fetch.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionFromContext(r.Context())

	d, release, err := s.dashboards.Acquire(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusServiceUnavailable)
		return
	}
	defer release()

	upgrader := s.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	openStreams.Inc()
	s.logger.Info("realtime stream opened", "session_id", sessionID)

	// Reads only detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		_ = ws.Close()
		<-done
		openStreams.Dec()
		s.logger.Info("realtime stream closed", "session_id", sessionID)
	}()

	if err := s.sendState(ws, d); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-d.Changes():
			if err := s.sendState(ws, d); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) sendState(ws *websocket.Conn, d *dashboard.Dashboard) error {
	state := d.State()
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(Frame{Type: "state", State: &state}); err != nil {
		s.logger.Warn("failed to write websocket frame", "error", err)
		return err
	}
	return nil
}
