package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/blastgrid/internal/ai"
	"github.com/amalg/blastgrid/internal/discovery"
	"github.com/amalg/blastgrid/internal/game"
	"github.com/amalg/blastgrid/internal/network"
	"github.com/amalg/blastgrid/internal/ui"
)

func main() {
	port := flag.Int("port", 9999, "Port to listen on")
	spectatePort := flag.Int("spectate-port", 9997, "HTTP port of the spectator feed (0 disables it)")
	name := flag.String("name", "Host", "Your player name")
	local := flag.Int("local", 1, "Number of players at this keyboard (1 or 2)")
	bots := flag.Int("bots", 0, "Number of computer players")
	configPath := flag.String("config", "", "YAML game configuration")
	seed := flag.Int64("seed", 0, "Match seed (0 picks one from the clock)")
	headless := flag.Bool("headless", false, "Run without a local player or TUI")
	announce := flag.Bool("announce", true, "Advertise the match on the local network")
	discoveryPort := flag.Int("discovery-port", discovery.DefaultPort, "UDP port for match discovery")
	logFile := flag.String("log", "", "Log file path (default: discard logs unless headless)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(level)

	// Redirect log output IMMEDIATELY, before any server code runs.
	// Any stderr output will corrupt Bubbletea's terminal rendering.
	switch {
	case *logFile != "":
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
		log.SetFormatter(&log.JSONFormatter{})
	case !*headless:
		log.SetOutput(io.Discard)
	}

	config := game.DefaultConfig()
	if *configPath != "" {
		config, err = game.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.WithField("seed", *seed).Info("match seed")

	addr := fmt.Sprintf("0.0.0.0:%d", *port)
	server := network.NewServer(addr, config, *seed, log.StandardLogger())
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	if *spectatePort > 0 {
		go func() {
			spectateAddr := fmt.Sprintf("0.0.0.0:%d", *spectatePort)
			if err := http.ListenAndServe(spectateAddr, server.Spectators()); err != nil {
				log.WithError(err).Error("spectator feed stopped")
			}
		}()
	}

	if *announce {
		info := discovery.MatchInfo{
			MatchName:  *name + "'s match",
			HostName:   *name,
			MaxPlayers: config.MaxPlayers,
			Status:     game.StatusLobby.String(),
			GameAddr:   fmt.Sprintf("%s:%d", outboundIP(), *port),
		}
		if *spectatePort > 0 {
			info.SpectateAddr = fmt.Sprintf("%s:%d", outboundIP(), *spectatePort)
		}
		broadcaster := discovery.NewBroadcaster(info, *discoveryPort, log.WithField("component", "discovery"))
		server.Watch(broadcaster.Update)
		if err := broadcaster.Start(); err != nil {
			log.WithError(err).Warn("match will not be advertised")
		} else {
			defer broadcaster.Stop()
		}
	}

	if *headless {
		addBots(server.Engine(), config, *bots)
		fmt.Printf("💣 Blastgrid server on port %d (seed %d)\n", *port, *seed)
		printLocalAddrs(*port)
		waitForSignal()
		server.Stop()
		return
	}

	// Give the TCP listener time to be fully ready
	time.Sleep(200 * time.Millisecond)

	clientAddr := fmt.Sprintf("127.0.0.1:%d", *port)
	client, err := network.NewClient(clientAddr, *name, *local)
	if err != nil {
		server.Stop()
		fmt.Fprintf(os.Stderr, "Failed to connect as host: %v\n", err)
		os.Exit(1)
	}
	addBots(server.Engine(), config, *bots)

	fmt.Printf("💣 Blastgrid server on port %d (seed %d)\n", *port, *seed)
	printLocalAddrs(*port)
	fmt.Printf("\nConnected as %s. Starting TUI...\n", *name)

	// Small pause so the user can read the IPs
	time.Sleep(500 * time.Millisecond)

	go func() {
		waitForSignal()
		client.Close()
		server.Stop()
		os.Exit(0)
	}()

	// Start the TUI; this takes over the terminal completely
	model := ui.NewModel(client)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		client.Close()
		server.Stop()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	client.Close()
	server.Stop()
}

// addBots fills up to n slots with computer players driven by the planner.
func addBots(engine *game.Engine, config game.GameConfig, n int) {
	for i := 0; i < n; i++ {
		slot, err := engine.AddPlayer(fmt.Sprintf("Bot %d", i+1), 0, true)
		if err != nil {
			log.WithError(err).Warn("no room for more bots")
			return
		}
		logger := log.WithFields(log.Fields{"component": "ai", "player": slot})
		if err := engine.SetAgent(slot, ai.New(config.AI, logger)); err != nil {
			log.WithError(err).WithField("player", slot).Warn("attach agent")
		}
	}
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

// outboundIP guesses the LAN address other machines reach this host on.
func outboundIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}

// printLocalAddrs prints all local network addresses for players to connect to.
func printLocalAddrs(port int) {
	fmt.Println("Players can connect using:")
	fmt.Printf("  127.0.0.1:%d (this machine)\n", port)

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				fmt.Printf("  %s:%d\n", ipnet.IP.String(), port)
			}
		}
	}
}
