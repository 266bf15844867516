package network

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/blastgrid/internal/game"
)

// ErrNotYourPlayer is returned to a client sending input for a slot it does
// not control.
var ErrNotYourPlayer = errors.New("player not controlled by this client")

// Server hosts the game and manages client connections.
type Server struct {
	engine     *game.Engine
	addr       string
	listener   net.Listener
	clients    map[int]*clientConn
	nextClient int
	spectators *Spectators
	watchers   []func(game.Snapshot)
	mu         sync.RWMutex
	done       chan struct{}
	log        log.FieldLogger
}

// clientConn represents a connected client.
type clientConn struct {
	conn    net.Conn
	index   int
	session string
	players []int
	mu      sync.Mutex
}

func (cc *clientConn) owns(player int) bool {
	for _, p := range cc.players {
		if p == player {
			return true
		}
	}
	return false
}

// NewServer creates a new game server for a match with the given seed.
// Client index 0 is reserved for players local to the host process.
func NewServer(addr string, config game.GameConfig, seed int64, logger log.FieldLogger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	engine := game.NewEngine(config, seed, logger.WithField("component", "engine"))

	s := &Server{
		engine:     engine,
		addr:       addr,
		clients:    make(map[int]*clientConn),
		nextClient: 1,
		done:       make(chan struct{}),
		log:        logger.WithField("component", "server"),
	}
	s.spectators = NewSpectators(engine, logger.WithField("component", "spectate"))

	// The engine hands over copies, so broadcasting never holds its lock.
	engine.OnTick(func(snapshot game.Snapshot) {
		s.broadcast(MsgState, StateMsg{Snapshot: snapshot})
		s.spectators.Publish(snapshot)
		s.mu.RLock()
		watchers := s.watchers
		s.mu.RUnlock()
		for _, fn := range watchers {
			fn(snapshot)
		}
	})
	engine.OnEvent(func(ev game.Event) {
		if ev.Kind != game.EventSound {
			s.broadcast(MsgEvent, EventMsg{Event: ev})
		}
	})

	return s
}

// Engine returns the underlying game engine.
func (s *Server) Engine() *game.Engine {
	return s.engine
}

// Spectators returns the read-only websocket feed of the match.
func (s *Server) Spectators() *Spectators {
	return s.spectators
}

// Watch registers fn to receive every snapshot after it was broadcast.
func (s *Server) Watch(fn func(game.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Addr returns the address the server listens on, once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Start begins accepting connections and running the game loop.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.log.WithField("addr", s.listener.Addr().String()).Info("listening")

	go s.engine.Run()
	go s.acceptLoop()

	return nil
}

// Stop shuts down the server.
func (s *Server) Stop() {
	close(s.done)
	s.engine.Stop()
	if s.listener != nil {
		s.listener.Close()
	}
	s.spectators.Close()
	s.mu.RLock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.mu.RUnlock()
}

// StartGame starts the game from lobby to running.
func (s *Server) StartGame() error {
	return s.engine.StartGame()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.WithError(err).Warn("accept failed")
				continue
			}
		}
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()
	logger := s.log.WithField("remote", conn.RemoteAddr().String())

	env, err := Decode(conn)
	if err != nil {
		logger.WithError(err).Warn("failed to read join message")
		return
	}

	if env.Type != MsgJoin {
		logger.WithField("type", env.Type).Warn("expected join message")
		Encode(conn, MsgError, ErrorMsg{Message: "expected join message"})
		return
	}

	var joinMsg JoinMsg
	if err := DecodePayload(env, &joinMsg); err != nil {
		logger.WithError(err).Warn("invalid join message")
		return
	}
	if joinMsg.Players < 1 {
		joinMsg.Players = 1
	}

	cc, err := s.register(conn, joinMsg)
	if err != nil {
		Encode(conn, MsgError, ErrorMsg{Message: err.Error()})
		return
	}
	logger = logger.WithFields(log.Fields{"client": cc.index, "session": cc.session})
	logger.WithFields(log.Fields{"name": joinMsg.Name, "players": cc.players}).Info("client joined")

	welcome := WelcomeMsg{
		Client:  cc.index,
		Session: cc.session,
		Players: cc.players,
		Config:  s.engine.Config,
	}
	if err := cc.send(MsgWelcome, welcome); err != nil {
		logger.WithError(err).Warn("failed to send welcome")
		s.removeClient(cc.index)
		return
	}
	cc.send(MsgState, StateMsg{Snapshot: s.engine.Snapshot()})

	for {
		select {
		case <-s.done:
			return
		default:
		}

		env, err := Decode(conn)
		if err != nil {
			logger.WithError(err).Info("client disconnected")
			s.removeClient(cc.index)
			return
		}

		switch env.Type {
		case MsgInput:
			var input InputMsg
			if err := DecodePayload(env, &input); err != nil {
				logger.WithError(err).Debug("invalid input")
				continue
			}
			for _, ev := range input.Events {
				if !cc.owns(ev.Player) {
					cc.send(MsgError, ErrorMsg{Message: fmt.Sprintf("%v: %d", ErrNotYourPlayer, ev.Player)})
					continue
				}
				s.engine.EnqueueInput(cc.index, ev)
			}
		case MsgStart:
			if err := s.engine.StartGame(); err != nil {
				cc.send(MsgError, ErrorMsg{Message: err.Error()})
			}
		default:
			logger.WithField("type", env.Type).Debug("unknown message type")
		}
	}
}

// register adds the client's players to the lobby. Partially added players
// stay in their slots as disconnected when the game fills up mid-join.
func (s *Server) register(conn net.Conn, join JoinMsg) (*clientConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cc := &clientConn{
		conn:    conn,
		index:   s.nextClient,
		session: uuid.NewString(),
	}
	for i := 0; i < join.Players; i++ {
		name := join.Name
		if join.Players > 1 {
			name = fmt.Sprintf("%s %d", join.Name, i+1)
		}
		slot, err := s.engine.AddPlayer(name, cc.index, false)
		if err != nil {
			for _, p := range cc.players {
				s.engine.DisconnectPlayer(p)
			}
			return nil, err
		}
		cc.players = append(cc.players, slot)
	}
	s.nextClient++
	s.clients[cc.index] = cc
	return cc, nil
}

func (s *Server) removeClient(index int) {
	s.mu.Lock()
	cc, ok := s.clients[index]
	if ok {
		cc.conn.Close()
		delete(s.clients, index)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	for _, p := range cc.players {
		if err := s.engine.DisconnectPlayer(p); err != nil {
			s.log.WithError(err).WithField("player", p).Warn("disconnect failed")
		}
	}
	s.log.WithFields(log.Fields{"client": index, "session": cc.session}).Info("client removed")
}

func (s *Server) broadcast(msgType MsgType, payload any) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cc := range s.clients {
		if err := cc.send(msgType, payload); err != nil {
			s.log.WithError(err).WithField("client", cc.index).Debug("send failed")
		}
	}
}

func (cc *clientConn) send(msgType MsgType, payload any) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return Encode(cc.conn, msgType, payload)
}
