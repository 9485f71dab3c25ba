package dashboard

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"ControlPagos/api/constants"
	"ControlPagos/internal/pipeline"
	"ControlPagos/internal/resource"
)

// RunHistory supplies the events already recorded for a run.
type RunHistory interface {
	Get(id string) (resource.RunView, bool)
}

type sseMessage struct {
	Type    string            `json:"type"`
	RunID   string            `json:"run_id,omitempty"`
	Event   *pipeline.Event   `json:"event,omitempty"`
	Outcome *pipeline.Outcome `json:"outcome,omitempty"`
	Time    time.Time         `json:"time"`
}

type SSEClient struct {
	runID string
	send  chan sseMessage
	done  chan struct{}
	once  sync.Once
}

func (c *SSEClient) close() { c.once.Do(func() { close(c.done) }) }

// SSEServer streams the progress of runs to the console. Clients subscribe to
// one run; RunEvent and RunFinished fan out to the subscribers of that run.
type SSEServer struct {
	mu           sync.RWMutex
	clients      map[string]map[*SSEClient]struct{}
	history      RunHistory
	pingInterval time.Duration
	buffer       int
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewSSEServer(history RunHistory, pingInterval time.Duration) *SSEServer {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &SSEServer{
		clients:      make(map[string]map[*SSEClient]struct{}),
		history:      history,
		pingInterval: pingInterval,
		buffer:       256,
		stopCh:       make(chan struct{}),
	}
}

// ServeRun streams run runID: first the recorded events, then live ones,
// and closes after the outcome.
func (s *SSEServer) ServeRun(w http.ResponseWriter, r *http.Request, runID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, constants.ErrStreamUnsupported, http.StatusInternalServerError)
		return
	}

	client := s.subscribe(runID)
	defer s.unsubscribe(client)

	view, ok := s.history.Get(runID)
	if !ok {
		http.Error(w, constants.ErrRunNotFound, http.StatusNotFound)
		return
	}

	w.Header().Set(constants.ContentTypeText, constants.ContentTypeEventStream)
	w.Header().Set(constants.HeaderCacheControl, "no-cache")
	w.Header().Set(constants.HeaderConnection, "keep-alive")
	w.Header().Set(constants.HeaderAccessControlAllowOrigin, "*")
	w.WriteHeader(http.StatusOK)

	log.Printf("[SSE] Client for run %s connected from %s", runID, r.RemoteAddr)
	defer log.Printf("[SSE] Client for run %s disconnected", runID)

	if err := write(w, flusher, sseMessage{Type: constants.SSEConnected, RunID: runID}); err != nil {
		return
	}
	lastSeq := 0
	for i := range view.Events {
		ev := view.Events[i]
		if err := write(w, flusher, sseMessage{Type: constants.SSEEvent, RunID: runID, Event: &ev}); err != nil {
			return
		}
		lastSeq = ev.Seq
	}
	if view.Outcome != nil {
		write(w, flusher, sseMessage{Type: constants.SSEOutcome, RunID: runID, Outcome: view.Outcome})
		return
	}

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()
	for {
		select {
		case msg := <-client.send:
			if msg.Event != nil {
				if msg.Event.Seq <= lastSeq {
					continue
				}
				lastSeq = msg.Event.Seq
			}
			if err := write(w, flusher, msg); err != nil {
				return
			}
			if msg.Type == constants.SSEOutcome {
				return
			}
		case <-ping.C:
			if err := write(w, flusher, sseMessage{Type: constants.SSEPing}); err != nil {
				return
			}
		case <-client.done:
			return
		case <-r.Context().Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

func write(w http.ResponseWriter, flusher http.Flusher, msg sseMessage) error {
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (s *SSEServer) subscribe(runID string) *SSEClient {
	c := &SSEClient{runID: runID, send: make(chan sseMessage, s.buffer), done: make(chan struct{})}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[runID] == nil {
		s.clients[runID] = make(map[*SSEClient]struct{})
	}
	s.clients[runID][c] = struct{}{}
	return c
}

func (s *SSEServer) unsubscribe(c *SSEClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.clients[c.runID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(s.clients, c.runID)
		}
	}
}

func (s *SSEServer) publish(runID string, msg sseMessage) {
	s.mu.RLock()
	var slow []*SSEClient
	for c := range s.clients[runID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		log.Printf("[SSE] Dropping slow client for run %s", runID)
		c.close()
	}
}

// ClientCount returns the number of connected clients.
func (s *SSEServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, set := range s.clients {
		n += len(set)
	}
	return n
}

func (s *SSEServer) RunStarted(pipeline.RunInfo) {}

func (s *SSEServer) RunEvent(ev pipeline.Event) {
	s.publish(ev.RunID, sseMessage{Type: constants.SSEEvent, RunID: ev.RunID, Event: &ev})
}

func (s *SSEServer) RunFinished(out pipeline.Outcome) {
	s.publish(out.RunID, sseMessage{Type: constants.SSEOutcome, RunID: out.RunID, Outcome: &out})
}

func (s *SSEServer) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
