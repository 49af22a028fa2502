package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ResultsHandler pushes every inspection report to WebSocket clients as JSON.
type ResultsHandler struct {
	source ReportSource
	done   <-chan struct{}
}

// NewResultsHandler creates a ResultsHandler backed by source. Connections
// are closed when done is closed.
func NewResultsHandler(source ReportSource, done <-chan struct{}) *ResultsHandler {
	return &ResultsHandler{source: source, done: done}
}

func goingAway(conn *websocket.Conn) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
		time.Now().Add(writeWait))
}

// ServeHTTP upgrades the connection and forwards reports until either side
// goes away.
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	reports, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// The read loop only notices the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if latest := h.source.Latest(); latest != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(latest); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case <-h.done:
			goingAway(conn)
			return
		case report, ok := <-reports:
			if !ok {
				goingAway(conn)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(report); err != nil {
				return
			}
		}
	}
}
