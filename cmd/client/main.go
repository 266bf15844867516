package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/amalg/blastgrid/internal/discovery"
	"github.com/amalg/blastgrid/internal/network"
	"github.com/amalg/blastgrid/internal/ui"
)

func main() {
	addr := flag.String("addr", "", "Server address (e.g., 192.168.1.5:9999); empty searches the local network")
	name := flag.String("name", "Player", "Your player name")
	local := flag.Int("local", 1, "Number of players at this keyboard (1 or 2)")
	wait := flag.Duration("discover", 3*time.Second, "How long to search for matches when no address is given")
	discoveryPort := flag.Int("discovery-port", discovery.DefaultPort, "UDP port for match discovery")
	flag.Parse()

	log.SetOutput(io.Discard)

	if *addr == "" {
		found, err := discover(*discoveryPort, *wait)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
			os.Exit(1)
		}
		if found == "" {
			fmt.Fprintln(os.Stderr, "No joinable match found.")
			fmt.Fprintln(os.Stderr, "Usage: client --addr <host:port> [--name <name>]")
			fmt.Fprintln(os.Stderr, "  Example: client --addr 192.168.1.5:9999 --name Alice")
			os.Exit(1)
		}
		*addr = found
	}

	fmt.Printf("Connecting to %s as %s...\n", *addr, *name)

	client, err := network.NewClient(*addr, *name, *local)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("Connected! Client %d controls players %v\n", client.Index(), client.Players())
	fmt.Println("Starting TUI...")
	time.Sleep(500 * time.Millisecond)

	model := ui.NewModel(client)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// discover listens for match broadcasts and returns the first joinable one.
func discover(port int, wait time.Duration) (string, error) {
	listener := discovery.NewListener(port)
	if err := listener.Start(); err != nil {
		return "", err
	}
	defer listener.Stop()

	fmt.Println("Searching for matches on the local network...")
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		for _, m := range listener.Matches() {
			if m.Joinable() {
				fmt.Printf("Found %s (%d/%d players)\n", m.MatchName, m.PlayerCount, m.MaxPlayers)
				return m.GameAddr, nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return "", nil
}
