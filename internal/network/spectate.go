package network

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/blastgrid/internal/game"
)

const (
	spectatorBuffer = 8
	writeTimeout    = 200 * time.Millisecond
)

// Spectators streams msgpack encoded snapshots to read-only websocket
// viewers and serves the current level.
type Spectators struct {
	engine   *game.Engine
	upgrader *websocket.Upgrader
	router   *way.Router
	viewers  map[*viewer]struct{}
	mu       sync.Mutex
	closed   bool
	log      log.FieldLogger
}

type viewer struct {
	conn   *websocket.Conn
	frames chan []byte
}

// NewSpectators creates the feed for engine.
func NewSpectators(engine *game.Engine, logger log.FieldLogger) *Spectators {
	s := &Spectators{
		engine:   engine,
		upgrader: &websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		viewers:  make(map[*viewer]struct{}),
		log:      logger,
	}
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", "/spectate", s.handleSpectate())
	s.router.HandleFunc("GET", "/level", s.handleLevel())
	s.router.HandleFunc("GET", "/snapshot", s.handleSnapshot())
	return s
}

// ServeHTTP routes spectator requests.
func (s *Spectators) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Count returns the number of connected viewers.
func (s *Spectators) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

// Publish sends the snapshot to every viewer. Viewers that fall behind miss
// frames.
func (s *Spectators) Publish(snapshot game.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.viewers) == 0 {
		return
	}
	frame, err := snapshot.Encode()
	if err != nil {
		s.log.WithError(err).Warn("encode snapshot")
		return
	}
	for v := range s.viewers {
		select {
		case v.frames <- frame:
		default:
		}
	}
}

// Close disconnects all viewers.
func (s *Spectators) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for v := range s.viewers {
		close(v.frames)
		delete(s.viewers, v)
	}
}

func (s *Spectators) handleSpectate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.WithError(err).Warn("websocket upgrade")
			return
		}
		v := &viewer{conn: conn, frames: make(chan []byte, spectatorBuffer)}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.viewers[v] = struct{}{}
		s.mu.Unlock()
		s.log.WithField("remote", r.RemoteAddr).Info("spectator joined")

		go s.readLoop(v)
		s.writeLoop(v)
	}
}

// readLoop discards incoming messages and drops the viewer once the
// connection fails.
func (s *Spectators) readLoop(v *viewer) {
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			s.drop(v)
			return
		}
	}
}

func (s *Spectators) writeLoop(v *viewer) {
	defer v.conn.Close()
	for frame := range v.frames {
		v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.log.WithError(err).Debug("spectator write failed")
			s.drop(v)
			return
		}
	}
}

func (s *Spectators) drop(v *viewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.viewers[v]; ok {
		close(v.frames)
		delete(s.viewers, v)
	}
}

func (s *Spectators) handleLevel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := game.WriteLevel(w, s.engine.Level()); err != nil {
			s.log.WithError(err).Warn("write level")
		}
	}
}

func (s *Spectators) handleSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.engine.Snapshot()); err != nil {
			s.log.WithError(err).Warn("write snapshot")
		}
	}
}
