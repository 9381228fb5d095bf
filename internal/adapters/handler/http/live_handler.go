package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type tallyFeed interface {
	Subscribe() (<-chan []domain.Candidate, func())
}

type LiveHandler struct {
	store ports.BallotStore
	feed  tallyFeed
}

func NewLiveHandler(store ports.BallotStore, feed tallyFeed) *LiveHandler {
	return &LiveHandler{
		store: store,
		feed:  feed,
	}
}

// Stream upgrades to a websocket, sends the current results and then a fresh
// results document after every recorded ballot.
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("failed to upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	updates, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	tally, err := h.store.GetTally(r.Context())
	if err != nil {
		slog.Error("failed to get tally", "error", err)
		return
	}
	if !h.send(ws, tally) {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.Debug("live results reader closed", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case tally, ok := <-updates:
			if !ok || !h.send(ws, tally) {
				return
			}
		}
	}
}

func (h *LiveHandler) send(ws *websocket.Conn, tally []domain.Candidate) bool {
	resp, err := buildResults(tally, false)
	if err != nil {
		slog.Error("failed to build results", "error", err)
		return false
	}
	if err := ws.WriteJSON(resp); err != nil {
		slog.Debug("failed to write live results", "error", err)
		return false
	}
	return true
}
