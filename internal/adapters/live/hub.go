// Package live fans tally updates out to connected results screens.
package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

const subscriberBuffer = 4

// Hub delivers every published tally to each subscriber. A subscriber that
// falls behind skips to the newest tally; results screens only need the
// latest one.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan []domain.Candidate
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan []domain.Candidate)}
}

func (h *Hub) Subscribe() (<-chan []domain.Candidate, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan []domain.Candidate, subscriberBuffer)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
}

func (h *Hub) Publish(tally []domain.Candidate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		update := append([]domain.Candidate(nil), tally...)
		select {
		case ch <- update:
		default:
			// drop the oldest pending update
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

type notifyingStore struct {
	ports.BallotStore
	hub *Hub
}

// Notify publishes the fresh tally to hub after every successful cast.
func Notify(store ports.BallotStore, hub *Hub) ports.BallotStore {
	return &notifyingStore{BallotStore: store, hub: hub}
}

func (s *notifyingStore) CastBallot(ctx context.Context, voterID, candidateID string) (*domain.Ballot, error) {
	ballot, err := s.BallotStore.CastBallot(ctx, voterID, candidateID)
	if err != nil {
		return nil, err
	}

	tally, err := s.BallotStore.GetTally(ctx)
	if err != nil {
		slog.Warn("failed to read tally for live update", "error", err)
		return ballot, nil
	}
	s.hub.Publish(tally)
	return ballot, nil
}
