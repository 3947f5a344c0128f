// Package sse streams cleaning run events to browsers over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/tabtidy/internal/report"
)

// Event types.
const (
	TypeRunStarted  = "run.started"
	TypeRunProgress = "run.progress"
	TypeLinkRemoved = "link.removed"
	TypeRunFinished = "run.finished"
)

// DefaultProgressInterval is the minimum gap between run.progress events of
// one run.
const DefaultProgressInterval = 250 * time.Millisecond

// Event is one message broadcast to every subscriber.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RunStartedData is the payload of run.started.
type RunStartedData struct {
	RunID      string `json:"run_id"`
	TotalLinks int    `json:"total_links"`
}

// ProgressData is the payload of run.progress.
type ProgressData struct {
	RunID string `json:"run_id"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// LinkRemovedData is the payload of link.removed.
type LinkRemovedData struct {
	RunID string `json:"run_id"`
	report.DeletionRecord
}

// RunFinishedData is the payload of run.finished.
type RunFinishedData struct {
	RunID string `json:"run_id"`
	report.RunStats
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set and the per-run progress throttle.
// Public methods talk to it over channels.
type Broker struct {
	progressMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	progressCh    chan ProgressData
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that emits at most one run.progress event per
// interval for each run. The final progress event of a run is never dropped.
func NewBroker(progressInterval time.Duration) *Broker {
	if progressInterval <= 0 {
		progressInterval = DefaultProgressInterval
	}

	b := &Broker{
		progressMin:   progressInterval,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		progressCh:    make(chan ProgressData, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	lastProgress := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			if event.Type == TypeRunFinished {
				if d, ok := event.Data.(RunFinishedData); ok {
					delete(lastProgress, d.RunID)
				}
			}
			broadcast(event)

		case p := <-b.progressCh:
			now := time.Now()
			if p.Done < p.Total && now.Sub(lastProgress[p.RunID]) < b.progressMin {
				continue
			}
			lastProgress[p.RunID] = now
			broadcast(Event{Type: TypeRunProgress, Data: p})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// RunStarted publishes run.started.
func (b *Broker) RunStarted(runID string, totalLinks int) {
	b.Publish(Event{Type: TypeRunStarted, Data: RunStartedData{RunID: runID, TotalLinks: totalLinks}})
}

// Progress publishes a throttled run.progress.
func (b *Broker) Progress(runID string, done, total int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.progressCh <- ProgressData{RunID: runID, Done: done, Total: total}:
	case <-b.stopped:
	}
}

// LinkRemoved publishes link.removed.
func (b *Broker) LinkRemoved(runID string, rec report.DeletionRecord) {
	b.Publish(Event{Type: TypeLinkRemoved, Data: LinkRemovedData{RunID: runID, DeletionRecord: rec}})
}

// RunFinished publishes run.finished.
func (b *Broker) RunFinished(runID string, stats report.RunStats) {
	b.Publish(Event{Type: TypeRunFinished, Data: RunFinishedData{RunID: runID, RunStats: stats}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
