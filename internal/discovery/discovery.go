// Package discovery advertises hosted matches on the local network and
// collects the advertisements of other hosts.
package discovery

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/amalg/blastgrid/internal/game"
)

const (
	// DefaultPort is the UDP port used for match discovery.
	DefaultPort = 9998
	// BroadcastInterval is how often hosts advertise their match.
	BroadcastInterval = 1 * time.Second
	// MatchExpiry is how long a match stays visible after its last broadcast.
	MatchExpiry = 4 * time.Second

	maxBeaconSize = 4096
)

// MatchInfo describes a match hosted on the network.
type MatchInfo struct {
	MatchName    string `json:"match_name" msgpack:"match_name"`
	HostName     string `json:"host_name" msgpack:"host_name"`
	PlayerCount  int    `json:"player_count" msgpack:"player_count"`
	MaxPlayers   int    `json:"max_players" msgpack:"max_players"`
	Status       string `json:"status" msgpack:"status"`
	Round        int    `json:"round" msgpack:"round"`
	Alive        int    `json:"alive" msgpack:"alive"`
	GameAddr     string `json:"game_addr" msgpack:"game_addr"`                             // TCP host:port to connect to
	SpectateAddr string `json:"spectate_addr,omitempty" msgpack:"spectate_addr,omitempty"` // HTTP host:port of the spectator feed
}

// Joinable reports whether new players may still enter the match.
func (m MatchInfo) Joinable() bool {
	return m.Status == game.StatusLobby.String() && m.PlayerCount < m.MaxPlayers
}

// Broadcaster periodically sends UDP beacons with match info.
type Broadcaster struct {
	port int
	info MatchInfo
	done chan struct{}
	mu   sync.Mutex
	log  log.FieldLogger
}

// NewBroadcaster creates a broadcaster advertising info on the given port.
func NewBroadcaster(info MatchInfo, port int, logger log.FieldLogger) *Broadcaster {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Broadcaster{
		port: port,
		info: info,
		done: make(chan struct{}),
		log:  logger.WithField("port", port),
	}
}

// Update refreshes the advertised progress from a snapshot.
func (b *Broadcaster) Update(s game.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info.PlayerCount = len(s.Players)
	b.info.Status = s.Status.String()
	b.info.Round = s.Round
	b.info.Alive = s.Alive()
}

// Info returns the current advertisement.
func (b *Broadcaster) Info() MatchInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

// Start opens the beacon socket and begins advertising.
func (b *Broadcaster) Start() error {
	// ListenPacket rather than DialUDP: a dialled socket to the broadcast
	// address is silently dropped on Linux without SO_BROADCAST.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("open beacon socket: %w", err)
	}
	targets := Targets(b.port)
	b.log.WithField("targets", len(targets)).Debug("advertising match")
	go b.loop(conn, targets)
	return nil
}

// Stop stops the broadcaster.
func (b *Broadcaster) Stop() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

func (b *Broadcaster) loop(conn net.PacketConn, targets []*net.UDPAddr) {
	defer conn.Close()
	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	for {
		b.send(conn, targets)
		select {
		case <-b.done:
			return
		case <-ticker.C:
		}
	}
}

func (b *Broadcaster) send(conn net.PacketConn, targets []*net.UDPAddr) {
	data, err := msgpack.Marshal(b.Info())
	if err != nil {
		b.log.WithError(err).Warn("encode beacon")
		return
	}
	for _, dst := range targets {
		if _, err := conn.WriteTo(data, dst); err != nil {
			b.log.WithError(err).WithField("dst", dst.String()).Debug("beacon not sent")
		}
	}
}

// Targets lists where beacons go: loopback first (the global broadcast is
// often filtered for same-machine peers), then the limited broadcast address,
// then the directed broadcast address of every IPv4 interface that is up.
func Targets(port int) []*net.UDPAddr {
	targets := []*net.UDPAddr{
		{IP: net.IPv4(127, 0, 0, 1), Port: port},
		{IP: net.IPv4bcast, Port: port},
	}
	seen := map[string]bool{}
	for _, t := range targets {
		seen[t.IP.String()] = true
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return targets
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := DirectedBroadcast(ipnet)
			if ip == nil || seen[ip.String()] {
				continue
			}
			seen[ip.String()] = true
			targets = append(targets, &net.UDPAddr{IP: ip, Port: port})
		}
	}
	return targets
}

// DirectedBroadcast returns the broadcast address of an IPv4 network, or nil
// for IPv6 networks.
func DirectedBroadcast(n *net.IPNet) net.IP {
	ip4 := n.IP.To4()
	if ip4 == nil || len(n.Mask) != net.IPv4len {
		return nil
	}
	out := make(net.IP, net.IPv4len)
	for i := range out {
		out[i] = ip4[i] | ^n.Mask[i]
	}
	return out
}

// seenMatch holds a match and when it was last heard.
type seenMatch struct {
	info MatchInfo
	at   time.Time
}

// Listener collects match beacons.
type Listener struct {
	port    int
	matches map[string]seenMatch // keyed by GameAddr
	mu      sync.RWMutex
	conn    *net.UDPConn
	done    chan struct{}
}

// NewListener creates a listener for beacons on the given port. Port 0 picks
// a free one, see Port.
func NewListener(port int) *Listener {
	return &Listener{
		port:    port,
		matches: make(map[string]seenMatch),
		done:    make(chan struct{}),
	}
}

// Start begins listening for beacons.
func (l *Listener) Start() error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: l.port})
	if err != nil {
		return fmt.Errorf("listen UDP on port %d: %w (is another instance browsing?)", l.port, err)
	}
	l.conn = conn
	l.port = conn.LocalAddr().(*net.UDPAddr).Port

	go l.readLoop()
	go l.expireLoop()
	return nil
}

// Port returns the port the listener is bound to.
func (l *Listener) Port() int { return l.port }

// Stop stops the listener.
func (l *Listener) Stop() {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	if l.conn != nil {
		l.conn.Close()
	}
}

// Matches returns the currently visible matches ordered by address.
func (l *Listener) Matches() []MatchInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matches := make([]MatchInfo, 0, len(l.matches))
	for _, m := range l.matches {
		matches = append(matches, m.info)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].GameAddr < matches[j].GameAddr })
	return matches
}

// observe records a beacon heard at now. Undecodable beacons and beacons
// without a game address are ignored.
func (l *Listener) observe(data []byte, now time.Time) bool {
	var info MatchInfo
	if err := msgpack.Unmarshal(data, &info); err != nil || info.GameAddr == "" {
		return false
	}
	l.mu.Lock()
	l.matches[info.GameAddr] = seenMatch{info: info, at: now}
	l.mu.Unlock()
	return true
}

// expire forgets matches not heard from within MatchExpiry of now.
func (l *Listener) expire(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for addr, m := range l.matches {
		if now.Sub(m.at) > MatchExpiry {
			delete(l.matches, addr)
		}
	}
}

func (l *Listener) readLoop() {
	buf := make([]byte, maxBeaconSize)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-l.done:
				return
			default:
				continue
			}
		}
		l.observe(buf[:n], time.Now())
	}
}

func (l *Listener) expireLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.expire(now)
		}
	}
}
