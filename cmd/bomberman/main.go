// Command bomberman plays a match between computer players, and optionally
// scripted human players, as fast as the simulation runs and prints the
// result. The same seed, configuration and script always produce the same
// checksum.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/amalg/blastgrid/internal/ai"
	"github.com/amalg/blastgrid/internal/game"
)

// scriptClient is the client index the input script is delivered as.
const scriptClient = 1

func main() {
	seed := flag.Int64("seed", 1, "Match seed")
	bots := flag.Int("bots", 4, "Number of computer players")
	configPath := flag.String("config", "", "YAML game configuration")
	levelPath := flag.String("level", "", "Play the first round on this level file")
	dumpLevel := flag.Bool("dump-level", false, "Print the first round's level and exit")
	maxTicks := flag.Int("ticks", 100000, "Stop after this many ticks")
	humans := flag.Int("humans", 0, "Number of human players driven by the input script")
	scriptPath := flag.String("script", "", "Input script for the human players (lines of \"<tick> <player>:<key>:<+|->...\")")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(level)

	config := game.DefaultConfig()
	if *configPath != "" {
		if config, err = game.LoadConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	var script game.InputScript
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open script: %v\n", err)
			os.Exit(1)
		}
		script, err = game.ReadInputScript(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read script: %v\n", err)
			os.Exit(1)
		}
	}

	engine := game.NewEngine(config, *seed, log.WithField("seed", *seed))
	for i := 0; i < *humans; i++ {
		if _, err := engine.AddPlayer(fmt.Sprintf("Player %d", i+1), scriptClient, false); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to add player: %v\n", err)
			os.Exit(1)
		}
	}
	for i := 0; i < *bots; i++ {
		slot, err := engine.AddPlayer(fmt.Sprintf("Bot %d", i+1), 0, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to add bot: %v\n", err)
			os.Exit(1)
		}
		engine.SetAgent(slot, ai.New(config.AI, log.WithField("player", slot)))
	}

	engine.OnEvent(func(ev game.Event) {
		switch ev.Kind {
		case game.EventRoundEnded:
			fmt.Printf("round %d: winner %d at tick %d\n", ev.Round, ev.Player, ev.Tick)
		case game.EventRoundAborted:
			fmt.Printf("round %d aborted at tick %d\n", ev.Round, ev.Tick)
		case game.EventGameOver:
			fmt.Printf("match won by player %d\n", ev.Player)
		}
	})

	if *levelPath != "" {
		f, err := os.Open(*levelPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open level: %v\n", err)
			os.Exit(1)
		}
		grid, err := game.ReadLevel(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read level: %v\n", err)
			os.Exit(1)
		}
		err = engine.StartGameOn(grid)
	} else {
		err = engine.StartGame()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	if *dumpLevel {
		game.WriteLevel(os.Stdout, engine.Level())
		return
	}

	for t := 0; t < *maxTicks && engine.Status() != game.StatusOver; t++ {
		if err := engine.AdvanceTick(script.Batch(int64(t), scriptClient)); err != nil {
			log.WithError(err).Warn("tick failed")
		}
	}

	snapshot := engine.Snapshot()
	sum, err := snapshot.Checksum()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Checksum failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nstatus %s after %d ticks, %d rounds\n", snapshot.Status, snapshot.Tick, snapshot.Round)
	for _, p := range snapshot.Players {
		fmt.Printf("  %-8s %d points, %d kills\n", p.Name, p.Points, p.Kills)
	}
	fmt.Printf("checksum %s\n", sum)
}
